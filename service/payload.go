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
	"strings"

	"launchpad.net/go-dbus"
)

//Payload is used to build the dbus messages; this is a workaround as v1 of go-dbus
//tries to encode and decode private fields.
type Payload struct {
	Path       dbus.ObjectPath
	Properties map[string]dbus.Variant
}

type Attachment struct {
	Id        string
	MediaType string
	FilePath  string
	Offset    uint64
	Length    uint64
}

type OutAttachment struct {
	Id          string
	ContentType string
	FilePath    string
}

type OutgoingMessage struct {
	Recipients  []string
	Smil        string
	Attachments []OutAttachment
	Reply       *dbus.Message
}

//InboundMessage carries everything the bus payload of a received message
//needs, already resolved against local storage.
type InboundMessage struct {
	UUID           string
	Date           string
	Sender         string
	Subject        string
	DeliveryReport bool
	ModemNumber    string
	Recipients     []string
	Smil           string
	Attachments    []Attachment
}

func (im *InboundMessage) properties() map[string]dbus.Variant {
	params := make(map[string]dbus.Variant)
	params["Status"] = dbus.Variant{RECEIVED}
	params["Date"] = dbus.Variant{im.Date}
	if im.Subject != "" {
		params["Subject"] = dbus.Variant{im.Subject}
	}
	sender := im.Sender
	if strings.HasSuffix(sender, PLMN) {
		sender = sender[:len(sender)-len(PLMN)]
	}
	params["Sender"] = dbus.Variant{sender}
	params["Delivery Report"] = dbus.Variant{im.DeliveryReport}
	params["Modem Number"] = dbus.Variant{im.ModemNumber}
	// a received message addressed only to us keeps the receiving
	// number as its recipient list
	recipients := im.Recipients
	if len(recipients) == 0 {
		recipients = []string{im.ModemNumber}
	}
	params["Recipients"] = dbus.Variant{recipients}
	if im.Smil != "" {
		params["Smil"] = dbus.Variant{im.Smil}
	}
	params["Attachments"] = dbus.Variant{im.Attachments}
	return params
}
