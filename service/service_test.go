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

package service

import (
	"os"
	"testing"

	"github.com/FuriLabs/mmsd4ofono/storage"
	. "launchpad.net/gocheck"
	"launchpad.net/go-dbus"
)

func Test(t *testing.T) { TestingT(t) }

type ServiceTestSuite struct{}

var _ = Suite(&ServiceTestSuite{})

func (s *ServiceTestSuite) SetUpTest(c *C) {
	os.Setenv("XDG_DATA_HOME", c.MkDir())
	os.Setenv("XDG_CACHE_HOME", c.MkDir())
}

func (s *ServiceTestSuite) TestInboundPayloadStripsPlmnSuffix(c *C) {
	im := &InboundMessage{
		UUID:       "deadbeef",
		Date:       "2024-05-01T10:00:00Z",
		Sender:     "+15551234567" + PLMN,
		Recipients: []string{"+15551112222", "+15553334444", "+15551234567"},
	}
	props := im.properties()
	c.Check(props["Sender"].Value, Equals, "+15551234567")
	c.Check(props["Status"].Value, Equals, RECEIVED)
	c.Check(props["Recipients"].Value, DeepEquals, im.Recipients)
}

func (s *ServiceTestSuite) TestInboundPayloadOmitsEmptySubjectAndSmil(c *C) {
	im := &InboundMessage{UUID: "deadbeef", Sender: "+15551234567"}
	props := im.properties()
	_, hasSubject := props["Subject"]
	c.Check(hasSubject, Equals, false)
	_, hasSmil := props["Smil"]
	c.Check(hasSmil, Equals, false)

	im.Subject = "hello"
	im.Smil = "<smil></smil>"
	props = im.properties()
	c.Check(props["Subject"].Value, Equals, "hello")
	c.Check(props["Smil"].Value, Equals, "<smil></smil>")
}

func (s *ServiceTestSuite) TestInboundPayloadDefaultsRecipientsToModemNumber(c *C) {
	im := &InboundMessage{
		UUID:        "deadbeef",
		Sender:      "+15551234567",
		ModemNumber: "+15559998888",
	}
	props := im.properties()
	c.Check(props["Modem Number"].Value, Equals, "+15559998888")
	c.Check(props["Recipients"].Value, DeepEquals, []string{"+15559998888"})
}

func (s *ServiceTestSuite) TestParseOutgoingMessageSmilVariant(c *C) {
	msg := dbus.NewMethodCallMessage("org.ofono.mms", dbus.ObjectPath(MMS_DBUS_PATH+"/ident"), MMS_SERVICE_DBUS_IFACE, "SendMessage")
	attachments := []OutAttachment{{"<text0>", "text/plain", "/tmp/text0.txt"}}
	err := msg.AppendArgs([]string{"+15551234567"}, dbus.Variant{"<smil/>"}, attachments)
	c.Assert(err, IsNil)

	out, err := parseOutgoingMessage(msg)
	c.Assert(err, IsNil)
	c.Check(out.Recipients, DeepEquals, []string{"+15551234567"})
	c.Check(out.Smil, Equals, "<smil/>")
	c.Check(out.Attachments, DeepEquals, attachments)
}

func (s *ServiceTestSuite) TestParseOutgoingMessageNonStringSmil(c *C) {
	msg := dbus.NewMethodCallMessage("org.ofono.mms", dbus.ObjectPath(MMS_DBUS_PATH+"/ident"), MMS_SERVICE_DBUS_IFACE, "SendMessage")
	err := msg.AppendArgs([]string{"+15551234567"}, dbus.Variant{false}, []OutAttachment{})
	c.Assert(err, IsNil)

	out, err := parseOutgoingMessage(msg)
	c.Assert(err, IsNil)
	c.Check(out.Smil, Equals, "")
}

func (s *ServiceTestSuite) TestGetUUIDFromObjectPath(c *C) {
	uuid, err := getUUIDFromObjectPath(dbus.ObjectPath(MMS_DBUS_PATH + "/ident/deadbeef"))
	c.Assert(err, IsNil)
	c.Check(uuid, Equals, "deadbeef")

	_, err = getUUIDFromObjectPath(dbus.ObjectPath(""))
	c.Check(err, NotNil)
	_, err = getUUIDFromObjectPath(dbus.ObjectPath("/"))
	c.Check(err, NotNil)
}

func (s *ServiceTestSuite) TestLoadPersistedSettingsOverridesDefaults(c *C) {
	err := storage.ReplaceSection(storage.SettingsSection, map[string]string{
		useDeliveryReportsProperty: "true",
		autoCreateSMILProperty:     "false",
	})
	c.Assert(err, IsNil)

	properties := map[string]dbus.Variant{
		useDeliveryReportsProperty: {false},
		autoCreateSMILProperty:     {true},
		maxAttachmentsProperty:     {maxAttachmentsDefault},
	}
	loadPersistedSettings(properties)
	c.Check(properties[useDeliveryReportsProperty].Value, Equals, true)
	c.Check(properties[autoCreateSMILProperty].Value, Equals, false)
	c.Check(properties[maxAttachmentsProperty].Value, Equals, maxAttachmentsDefault)
}

func (s *ServiceTestSuite) TestModemManagerLoadsPersistedSettings(c *C) {
	err := storage.ReplaceSection(storage.ModemManagerSection, map[string]string{
		mmsAPNProperty:            "mms.example",
		carrierMMSCProperty:       "http://mmsc.example/mms",
		autoProcessSMSWAPProperty: "false",
	})
	c.Assert(err, IsNil)

	mm := NewModemManager(nil)
	c.Check(mm.Setting(mmsAPNProperty), Equals, "mms.example")
	c.Check(mm.Setting(carrierMMSCProperty), Equals, "http://mmsc.example/mms")
	c.Check(mm.AutoProcessSMSWAP(), Equals, false)
}

func (s *ServiceTestSuite) TestModemManagerPersistRoundTrip(c *C) {
	mm := NewModemManager(nil)
	mm.properties[carrierMMSProxyProperty] = dbus.Variant{"10.0.0.1:8080"}
	c.Assert(mm.persist(), IsNil)

	stored := storage.ReadSection(storage.ModemManagerSection)
	c.Check(stored[carrierMMSProxyProperty], Equals, "10.0.0.1:8080")
	c.Check(stored[autoProcessOnConnectionProp], Equals, "true")
}

func (s *ServiceTestSuite) TestSettingUnknownReturnsEmpty(c *C) {
	mm := NewModemManager(nil)
	c.Check(mm.Setting("NoSuchSetting"), Equals, "")
}
