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
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"launchpad.net/go-xdg"
)

const SUBPATH = "mmsd4ofono/store"

// CreatePayload writes the raw wire blob for a message token.
func CreatePayload(uuid string, data []byte) (string, error) {
	payloadPath, err := xdg.Data.Ensure(path.Join(SUBPATH, uuid))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(payloadPath, data, 0644); err != nil {
		os.Remove(payloadPath)
		return "", err
	}
	return payloadPath, nil
}

// GetPayload returns the path of the stored wire blob for a token.
func GetPayload(uuid string) (string, error) {
	return xdg.Data.Find(path.Join(SUBPATH, uuid))
}

// WriteHeaders dumps decoded message headers as Key=Value lines, one
// per line, sorted for stable output.
func WriteHeaders(uuid string, headers map[string]string) error {
	headersPath, err := xdg.Data.Ensure(path.Join(SUBPATH, uuid+".headers"))
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, headers[k])
	}
	if err := os.WriteFile(headersPath, []byte(b.String()), 0644); err != nil {
		os.Remove(headersPath)
		return err
	}
	return nil
}

// ReadHeaders parses a Key=Value headers dump back into a map.
func ReadHeaders(uuid string) (map[string]string, error) {
	headersPath, err := xdg.Data.Find(path.Join(SUBPATH, uuid+".headers"))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(headersPath)
	if err != nil {
		return nil, err
	}
	headers := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		k, v, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		headers[k] = v
	}
	return headers, nil
}

// WriteAttachment stores one part's bytes and returns the file path.
func WriteAttachment(uuid string, index int, data []byte) (string, error) {
	attachmentPath, err := xdg.Data.Ensure(path.Join(SUBPATH, fmt.Sprintf("%s.attachment.%d", uuid, index)))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(attachmentPath, data, 0644); err != nil {
		os.Remove(attachmentPath)
		return "", err
	}
	return attachmentPath, nil
}

// GetAttachment returns the stored path of the attachment file with
// the given part index.
func GetAttachment(uuid string, index int) (string, error) {
	return xdg.Data.Find(path.Join(SUBPATH, fmt.Sprintf("%s.attachment.%d", uuid, index)))
}

// GetAttachments returns the stored attachment paths for a token,
// ordered by index.
func GetAttachments(uuid string) []string {
	storeDir, err := xdg.Data.Find(SUBPATH)
	if err != nil {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(storeDir, uuid+".attachment.*"))
	if err != nil {
		return nil
	}
	sort.Slice(matches, func(i, j int) bool {
		return attachmentIndex(matches[i]) < attachmentIndex(matches[j])
	})
	return matches
}

func attachmentIndex(attachmentPath string) int {
	suffix := filepath.Ext(attachmentPath)
	n, err := strconv.Atoi(strings.TrimPrefix(suffix, "."))
	if err != nil {
		return 0
	}
	return n
}

// Destroy removes every file whose name contains the token. Removal
// failures are collected, logged through the returned error and do not
// stop the remaining files from being removed.
func Destroy(uuid string) error {
	errs := Multierror{}

	storeDir, err := xdg.Data.Find(SUBPATH)
	if err != nil {
		return err
	}
	err = filepath.Walk(storeDir, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.Contains(filepath.Base(filePath), uuid) {
			return nil
		}
		if err := os.Remove(filePath); err != nil {
			errs = append(errs, ErrorRemovingFile{filePath, err})
		}
		return nil
	})
	if err != nil {
		errs = append(errs, err)
	}
	return errs.Result()
}

// Rehydratable returns the tokens eligible for re-publication on
// startup: every status file with a companion headers file and at
// least one attachment file. Anything less complete is an
// outbound-only or partially received message and is skipped.
func Rehydratable() []string {
	storeDir, err := xdg.Data.Find(SUBPATH)
	if err != nil {
		log.Printf("Storage directory %s not found in xdg data directories", SUBPATH)
		return nil
	}

	uuids := make([]string, 0)
	err = filepath.Walk(storeDir, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if matched, err := filepath.Match("*.status", filepath.Base(filePath)); err != nil {
			return err
		} else if matched {
			uuid := strings.TrimSuffix(filepath.Base(filePath), ".status")
			if _, err := os.Stat(filepath.Join(storeDir, uuid+".headers")); err != nil {
				return nil
			}
			if len(GetAttachments(uuid)) < 1 {
				return nil
			}
			uuids = append(uuids, uuid)
		}
		return nil
	})
	if err != nil {
		return nil
	}

	sort.Strings(uuids)
	return uuids
}
