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
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"launchpad.net/go-xdg"
)

// settingsFile holds the daemon settings, one section per bus-facing
// settings surface.
const settingsFile = "mmsd4ofono/mms"

// Section names in the settings file.
const (
	SettingsSection     = "Settings"
	ModemManagerSection = "Modem Manager"
)

var settingsMutex sync.Mutex

// ReplaceSection rewrites one named section of the settings file with
// the given values, preserving all other sections. The whole file is
// read, patched and written back; a crash mid-write can truncate it,
// which is accepted.
func ReplaceSection(section string, values map[string]string) error {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settingsPath, err := xdg.Data.Ensure(settingsFile)
	if err != nil {
		return err
	}
	sections, order := readSections(settingsPath)
	if _, ok := sections[section]; !ok {
		order = append(order, section)
	}
	sections[section] = values

	var b strings.Builder
	for i, name := range order {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s]\n", name)
		keys := make([]string, 0, len(sections[name]))
		for k := range sections[name] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "%s=%s\n", k, sections[name][k])
		}
	}
	return os.WriteFile(settingsPath, []byte(b.String()), 0644)
}

// ReadSection returns the key/value pairs of one named section, empty
// if the file or section does not exist.
func ReadSection(section string) map[string]string {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settingsPath, err := xdg.Data.Find(settingsFile)
	if err != nil {
		return map[string]string{}
	}
	sections, _ := readSections(settingsPath)
	if values, ok := sections[section]; ok {
		return values
	}
	return map[string]string{}
}

func readSections(settingsPath string) (map[string]map[string]string, []string) {
	sections := make(map[string]map[string]string)
	var order []string

	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return sections, order
	}
	var current string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			current = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			if _, ok := sections[current]; !ok {
				sections[current] = make(map[string]string)
				order = append(order, current)
			}
			continue
		}
		if current == "" {
			continue
		}
		k, v, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		sections[current][k] = v
	}
	return sections, order
}

// SettingsPath returns the settings file location, mostly for tests
// and diagnostics.
func SettingsPath() (string, error) {
	return xdg.Data.Find(path.Join(settingsFile))
}
