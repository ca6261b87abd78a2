/*
 * Copyright 2024 FuriLabs
 *
 * This file is part of mmsd4ofono.
 *
 * mmsd4ofono is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; version 3.
 *
 * mmsd4ofono is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"launchpad.net/go-xdg"
)

// PendingNotification is a push notification whose content fetch
// failed and is awaiting retry. It never expires; the retry queue
// drains it at a fixed interval until the fetch succeeds.
type PendingNotification struct {
	UUID            string
	TransactionId   string
	ContentLocation string
	Sender          string
	Enqueued        int64
	Info            map[string]string
}

// SavePending persists a pending notification so a daemon restart does
// not lose it.
func SavePending(pn *PendingNotification) error {
	pendingPath, err := xdg.Data.Ensure(path.Join(SUBPATH, pn.UUID+".pending"))
	if err != nil {
		return err
	}
	file, err := os.Create(pendingPath)
	if err != nil {
		return err
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	defer w.Flush()
	if err := json.NewEncoder(w).Encode(pn); err != nil {
		os.Remove(pendingPath)
		return err
	}
	return nil
}

// DeletePending removes the persisted entry after a successful fetch.
func DeletePending(uuid string) error {
	pendingPath, err := xdg.Data.Find(path.Join(SUBPATH, uuid+".pending"))
	if err != nil {
		return err
	}
	return os.Remove(pendingPath)
}

// ListPending returns all persisted pending notifications in enqueue
// order, oldest first, so the retry queue can be rebuilt on startup.
func ListPending() []*PendingNotification {
	storeDir, err := xdg.Data.Find(SUBPATH)
	if err != nil {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(storeDir, "*.pending"))
	if err != nil {
		return nil
	}

	var pending []*PendingNotification
	for _, pendingPath := range matches {
		f, err := os.Open(pendingPath)
		if err != nil {
			continue
		}
		pn := new(PendingNotification)
		err = json.NewDecoder(f).Decode(pn)
		f.Close()
		if err != nil {
			continue
		}
		if pn.UUID == "" {
			pn.UUID = strings.TrimSuffix(filepath.Base(pendingPath), ".pending")
		}
		pending = append(pending, pn)
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Enqueued < pending[j].Enqueued
	})
	return pending
}
