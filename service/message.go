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
	"fmt"
	"log"
	"sort"

	"github.com/FuriLabs/mmsd4ofono/storage"
	"launchpad.net/go-dbus"
)

var validStatus sort.StringSlice

func init() {
	validStatus = sort.StringSlice{RECEIVED, DRAFT, SENT}
	sort.Strings(validStatus)
}

type MessageInterface struct {
	conn       *dbus.Connection
	objectPath dbus.ObjectPath
	properties map[string]dbus.Variant
	msgChan    chan *dbus.Message
	deleteChan chan dbus.ObjectPath
	status     string
}

func NewMessageInterface(conn *dbus.Connection, objectPath dbus.ObjectPath, properties map[string]dbus.Variant, deleteChan chan dbus.ObjectPath) *MessageInterface {
	status := DRAFT
	if v, ok := properties[statusProperty]; ok {
		if s, ok := v.Value.(string); ok {
			status = s
		}
	}
	if properties == nil {
		properties = make(map[string]dbus.Variant)
	}
	msgInterface := MessageInterface{
		conn:       conn,
		objectPath: objectPath,
		properties: properties,
		deleteChan: deleteChan,
		msgChan:    make(chan *dbus.Message),
		status:     status,
	}
	go msgInterface.watchDBusMethodCalls()
	conn.RegisterObjectPath(msgInterface.objectPath, msgInterface.msgChan)
	return &msgInterface
}

func (msgInterface *MessageInterface) Close() {
	close(msgInterface.msgChan)
	msgInterface.msgChan = nil
	msgInterface.conn.UnregisterObjectPath(msgInterface.objectPath)
}

func (msgInterface *MessageInterface) watchDBusMethodCalls() {
	var reply *dbus.Message

	for msg := range msgInterface.msgChan {
		if msg.Interface != MMS_MESSAGE_DBUS_IFACE {
			log.Println("Received unknown interface call on", msg.Interface, msg.Member)
			reply = dbus.NewErrorMessage(msg, "org.freedesktop.DBus.Error.UnknownInterface", "Unknown interface")
			if err := msgInterface.conn.Send(reply); err != nil {
				log.Println("Could not send reply:", err)
			}
			continue
		}
		switch msg.Member {
		case "MarkRead":
			reply = dbus.NewMethodReturnMessage(msg)
			if err := msgInterface.markRead(); err != nil {
				log.Println("Cannot mark", msgInterface.objectPath, "read:", err)
				reply = dbus.NewErrorMessage(msg, "org.ofono.mms.Error.Failed", err.Error())
			}
			if err := msgInterface.conn.Send(reply); err != nil {
				log.Println("Could not send reply:", err)
			}
		case "Delete":
			reply = dbus.NewMethodReturnMessage(msg)
			if err := msgInterface.conn.Send(reply); err != nil {
				log.Println("Could not send reply:", err)
			}
			msgInterface.deleteChan <- msgInterface.objectPath
		default:
			log.Println("Received unknown method call on", msg.Interface, msg.Member)
			reply = dbus.NewErrorMessage(msg, "org.freedesktop.DBus.Error.UnknownMethod", "Unknown method")
			if err := msgInterface.conn.Send(reply); err != nil {
				log.Println("Could not send reply:", err)
			}
		}
	}
}

func (msgInterface *MessageInterface) markRead() error {
	uuid, err := getUUIDFromObjectPath(msgInterface.objectPath)
	if err != nil {
		return err
	}
	return storage.UpdateRead(uuid, true)
}

func (msgInterface *MessageInterface) StatusChanged(status string) error {
	i := validStatus.Search(status)
	if i >= validStatus.Len() || validStatus[i] != status {
		return fmt.Errorf("status %s is not a valid status", status)
	}
	msgInterface.status = status
	msgInterface.properties[statusProperty] = dbus.Variant{status}
	signal := dbus.NewSignalMessage(msgInterface.objectPath, MMS_MESSAGE_DBUS_IFACE, propertyChangedSignal)
	if err := signal.AppendArgs(statusProperty, dbus.Variant{status}); err != nil {
		return err
	}
	if err := msgInterface.conn.Send(signal); err != nil {
		return err
	}
	log.Print("Status changed for ", msgInterface.objectPath, " to ", status)
	return nil
}

func (msgInterface *MessageInterface) GetPayload() *Payload {
	properties := make(map[string]dbus.Variant, len(msgInterface.properties))
	for k, v := range msgInterface.properties {
		properties[k] = v
	}
	properties[statusProperty] = dbus.Variant{msgInterface.status}
	return &Payload{
		Path:       msgInterface.objectPath,
		Properties: properties,
	}
}
