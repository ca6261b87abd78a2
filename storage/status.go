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
	"fmt"
	"os"
	"path"
	"strings"

	"launchpad.net/go-xdg"
)

// Message lifecycle states as recorded in the status file.
const (
	RECEIVED = "received"
	DRAFT    = "draft"
	SENT     = "sent"
)

// Status is the durable lifecycle record of one message, kept in the
// [info] section of the token's .status file.
//
// State can be:
// - "received": m-Retrieve.Conf PDU downloaded and published.
// - "draft": m-Send.Req PDU ready for sending.
// - "sent": m-Send.Req PDU handed to the MMSC.
type Status struct {
	Read  bool
	State string
	Id    string
	Date  string
}

// WriteStatus persists the status record for a token, replacing any
// previous one.
func WriteStatus(uuid string, status Status) error {
	statusPath, err := xdg.Data.Ensure(path.Join(SUBPATH, uuid+".status"))
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("[info]\n")
	fmt.Fprintf(&b, "read=%t\n", status.Read)
	fmt.Fprintf(&b, "state=%s\n", status.State)
	fmt.Fprintf(&b, "id=%s\n", status.Id)
	fmt.Fprintf(&b, "date=%s\n", status.Date)
	if err := os.WriteFile(statusPath, []byte(b.String()), 0644); err != nil {
		os.Remove(statusPath)
		return err
	}
	return nil
}

// ReadStatus parses the [info] section of a token's status file.
func ReadStatus(uuid string) (Status, error) {
	var status Status
	statusPath, err := xdg.Data.Find(path.Join(SUBPATH, uuid+".status"))
	if err != nil {
		return status, err
	}
	f, err := os.Open(statusPath)
	if err != nil {
		return status, err
	}
	defer f.Close()

	inInfo := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inInfo = line == "[info]"
			continue
		}
		if !inInfo {
			continue
		}
		k, v, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		switch k {
		case "read":
			status.Read = v == "true"
		case "state":
			status.State = v
		case "id":
			status.Id = v
		case "date":
			status.Date = v
		}
	}
	return status, scanner.Err()
}

// UpdateRead rewrites the read flag in the status file.
func UpdateRead(uuid string, read bool) error {
	status, err := ReadStatus(uuid)
	if err != nil {
		return fmt.Errorf("error retrieving message status: %w", err)
	}
	status.Read = read
	return WriteStatus(uuid, status)
}

// UpdateState rewrites the lifecycle state in the status file.
func UpdateState(uuid, state string) error {
	status, err := ReadStatus(uuid)
	if err != nil {
		return fmt.Errorf("error retrieving message status: %w", err)
	}
	status.State = state
	return WriteStatus(uuid, status)
}
