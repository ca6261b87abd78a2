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

	"launchpad.net/go-dbus"
)

type MMSManager struct {
	conn         *dbus.Connection
	msgChan      chan *dbus.Message
	services     []*MMSService
	modemManager *ModemManager
	nameClaimed  bool
	// Rediscover is kicked when GetServices finds nothing exported.
	Rediscover chan struct{}
}

func NewMMSManager(conn *dbus.Connection) (*MMSManager, error) {
	manager := MMSManager{
		conn:       conn,
		msgChan:    make(chan *dbus.Message),
		Rediscover: make(chan struct{}, 1),
	}
	if err := manager.claimName(); err != nil {
		return nil, err
	}
	manager.modemManager = NewModemManager(conn)
	go manager.watchDBusMethodCalls()
	conn.RegisterObjectPath(MMS_DBUS_PATH, manager.msgChan)
	return &manager, nil
}

// claimName requests the well known bus name. Modems come and go but the
// name is only ever requested once.
func (manager *MMSManager) claimName() error {
	if manager.nameClaimed {
		return nil
	}
	name := manager.conn.RequestName(MMS_DBUS_NAME, dbus.NameFlagDoNotQueue)
	if err := <-name.C; err != nil {
		return fmt.Errorf("could not acquire name %s: %w", MMS_DBUS_NAME, err)
	}
	log.Printf("Registered %s on bus as %s", manager.conn.UniqueName, name.Name)
	manager.nameClaimed = true
	return nil
}

// ModemManager returns the modem manager interface exported next to the
// manager on the same object path.
func (manager *MMSManager) ModemManager() *ModemManager {
	return manager.modemManager
}

func (manager *MMSManager) watchDBusMethodCalls() {
	var reply *dbus.Message

	for msg := range manager.msgChan {
		switch {
		case msg.Interface == MMS_MANAGER_DBUS_IFACE && msg.Member == "GetServices":
			log.Print("Received GetServices()")
			reply = manager.getServices(msg)
		case msg.Interface == MMS_MODEM_MANAGER_DBUS_IFACE:
			reply = manager.modemManager.handleCall(msg)
		default:
			log.Println("Received unknown method call on", msg.Interface, msg.Member)
			reply = dbus.NewErrorMessage(msg, "org.freedesktop.DBus.Error.UnknownMethod", "Unknown method")
		}
		if err := manager.conn.Send(reply); err != nil {
			log.Print("Could not send reply: ", err)
		}
	}
}

func (manager *MMSManager) getServices(msg *dbus.Message) *dbus.Message {
	if len(manager.services) == 0 {
		select {
		case manager.Rediscover <- struct{}{}:
		default:
		}
	}
	var payloads []Payload
	for i := range manager.services {
		payloads = append(payloads, manager.services[i].payload)
	}
	reply := dbus.NewMethodReturnMessage(msg)
	if err := reply.AppendArgs(payloads); err != nil {
		log.Print("Cannot marshal service payloads")
		return dbus.NewErrorMessage(msg, "Error.InvalidArguments", "Cannot marshal services")
	}
	return reply
}

func (manager *MMSManager) serviceAdded(payload *Payload) error {
	log.Print("Service added ", payload.Path)
	signal := dbus.NewSignalMessage(MMS_DBUS_PATH, MMS_MANAGER_DBUS_IFACE, serviceAddedSignal)
	if err := signal.AppendArgs(payload.Path, payload.Properties); err != nil {
		return err
	}
	if err := manager.conn.Send(signal); err != nil {
		return fmt.Errorf("cannot send ServiceAdded for %s", payload.Path)
	}
	return nil
}

func (manager *MMSManager) AddService(identity string, modemObjPath dbus.ObjectPath, outgoingChannel chan *OutgoingMessage, useDeliveryReports bool) (*MMSService, error) {
	for i := range manager.services {
		if manager.services[i].isService(identity) {
			return manager.services[i], nil
		}
	}
	service := NewMMSService(manager.conn, modemObjPath, identity, outgoingChannel, useDeliveryReports)
	if err := manager.serviceAdded(&service.payload); err != nil {
		return &MMSService{}, err
	}
	manager.services = append(manager.services, service)
	return service, nil
}

func (manager *MMSManager) serviceRemoved(payload *Payload) error {
	log.Print("Service removed ", payload.Path)
	signal := dbus.NewSignalMessage(MMS_DBUS_PATH, MMS_MANAGER_DBUS_IFACE, serviceRemovedSignal)
	if err := signal.AppendArgs(payload.Path); err != nil {
		return err
	}
	if err := manager.conn.Send(signal); err != nil {
		return fmt.Errorf("cannot send ServiceRemoved for %s", payload.Path)
	}
	return nil
}

func (manager *MMSManager) RemoveService(identity string) error {
	for i := range manager.services {
		if manager.services[i].isService(identity) {
			manager.serviceRemoved(&manager.services[i].payload)
			manager.services[i].Close()
			manager.services = append(manager.services[:i], manager.services[i+1:]...)
			log.Print("Services left: ", len(manager.services))
			return nil
		}
	}
	return fmt.Errorf("cannot find service serving %s", identity)
}
