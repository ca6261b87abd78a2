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
	"os"
	"strings"

	. "launchpad.net/gocheck"
)

type SettingsTestSuite struct{}

var _ = Suite(&SettingsTestSuite{})

func (s *SettingsTestSuite) SetUpTest(c *C) {
	os.Setenv("XDG_DATA_HOME", c.MkDir())
}

func (s *SettingsTestSuite) TestReadMissingSectionIsEmpty(c *C) {
	c.Check(ReadSection(SettingsSection), HasLen, 0)
}

func (s *SettingsTestSuite) TestReplaceSectionRoundTrip(c *C) {
	values := map[string]string{
		"UseDeliveryReports": "false",
		"AutoCreateSMIL":     "true",
	}
	c.Assert(ReplaceSection(SettingsSection, values), IsNil)
	c.Check(ReadSection(SettingsSection), DeepEquals, values)
}

func (s *SettingsTestSuite) TestReplaceSectionPreservesOthers(c *C) {
	c.Assert(ReplaceSection(SettingsSection, map[string]string{"AutoCreateSMIL": "true"}), IsNil)
	c.Assert(ReplaceSection(ModemManagerSection, map[string]string{"CarrierMMSC": "http://mmsc.example"}), IsNil)

	c.Assert(ReplaceSection(SettingsSection, map[string]string{"AutoCreateSMIL": "false"}), IsNil)

	c.Check(ReadSection(SettingsSection), DeepEquals, map[string]string{"AutoCreateSMIL": "false"})
	c.Check(ReadSection(ModemManagerSection), DeepEquals, map[string]string{"CarrierMMSC": "http://mmsc.example"})
}

func (s *SettingsTestSuite) TestFileLayout(c *C) {
	c.Assert(ReplaceSection(SettingsSection, map[string]string{"AutoCreateSMIL": "true"}), IsNil)
	c.Assert(ReplaceSection(ModemManagerSection, map[string]string{"MMS_APN": "mms.example"}), IsNil)

	settingsPath, err := SettingsPath()
	c.Assert(err, IsNil)
	data, err := os.ReadFile(settingsPath)
	c.Assert(err, IsNil)

	text := string(data)
	c.Check(strings.Contains(text, "[Settings]\nAutoCreateSMIL=true\n"), Equals, true)
	c.Check(strings.Contains(text, "[Modem Manager]\nMMS_APN=mms.example\n"), Equals, true)
}
