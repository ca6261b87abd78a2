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

package ofono

import (
	"fmt"
	"log"
	"reflect"

	"launchpad.net/go-dbus"
)

// requiredInterfaces are the modem capabilities without which a modem
// cannot serve MMS and is not exported.
var requiredInterfaces = []string{
	CONNECTION_MANAGER_INTERFACE,
	PUSH_NOTIFICATION_INTERFACE,
	SIM_MANAGER_INTERFACE,
}

type Modem struct {
	conn                   *dbus.Connection
	Modem                  dbus.ObjectPath
	PushAgent              *PushAgent
	tracker                *Tracker
	identity               string
	IdentityAdded          chan string
	IdentityRemoved        chan string
	endWatch               chan bool
	PushInterfaceAvailable chan bool
	pushInterfaceAvailable bool
	online                 bool
	announced              bool
	modemSignal, simSignal *dbus.SignalWatch
}

func NewModem(conn *dbus.Connection, cache *ProxyCache, objectPath dbus.ObjectPath) *Modem {
	return &Modem{
		conn:                   conn,
		Modem:                  objectPath,
		IdentityAdded:          make(chan string),
		IdentityRemoved:        make(chan string),
		PushInterfaceAvailable: make(chan bool),
		endWatch:               make(chan bool),
		PushAgent:              NewPushAgent(objectPath),
		tracker:                NewTracker(conn, cache, objectPath),
	}
}

func (modem *Modem) Init() (err error) {
	log.Printf("Initializing modem %s", modem.Modem)
	modem.modemSignal, err = connectToPropertySignal(modem.conn, modem.Modem, MODEM_INTERFACE)
	if err != nil {
		return err
	}

	modem.simSignal, err = connectToPropertySignal(modem.conn, modem.Modem, SIM_MANAGER_INTERFACE)
	if err != nil {
		return err
	}

	// the calling order here avoids race conditions
	go modem.watchStatus()
	modem.fetchExistingStatus()

	return nil
}

// Tracker exposes the capability registry for this modem.
func (modem *Modem) Tracker() *Tracker {
	return modem.tracker
}

// Identity is the modem's subscriber identity, empty until the SIM
// reports one.
func (modem *Modem) Identity() string {
	return modem.identity
}

// Ready reports whether every interface required to serve MMS is
// currently advertised by the modem.
func (modem *Modem) Ready() bool {
	for _, iface := range requiredInterfaces {
		if !modem.tracker.Has(iface) {
			return false
		}
	}
	return true
}

// fetchExistingStatus fetches key required for the modem to be considered operational
// from a push notification point of view
//
// status updates are fetched through dbus method calls
func (modem *Modem) fetchExistingStatus() {
	if v, err := modem.getProperty(MODEM_INTERFACE, "Interfaces"); err == nil {
		modem.handleInterfacesChanged(*v)
	} else {
		log.Print("Initial value couldn't be retrieved: ", err)
	}
	if v, err := modem.getProperty(MODEM_INTERFACE, "Online"); err == nil {
		modem.handleOnlineState(*v)
	} else {
		log.Print("Initial value couldn't be retrieved: ", err)
	}
	if v, err := modem.getProperty(SIM_MANAGER_INTERFACE, "SubscriberIdentity"); err == nil {
		modem.handleIdentity(*v)
	}
}

// watchStatus monitors key states required for the modem to be considered operational
// from a push notification point of view
//
// status updates are monitered by hooking up to dbus signals
func (modem *Modem) watchStatus() {
	var propName string
	var propValue dbus.Variant
watchloop:
	for {
		select {
		case <-modem.endWatch:
			log.Printf("Ending modem watch for %s", modem.Modem)
			break watchloop
		case msg, ok := <-modem.modemSignal.C:
			if !ok {
				modem.modemSignal.C = nil
				continue watchloop
			}
			if err := msg.Args(&propName, &propValue); err != nil {
				log.Printf("Cannot interpret Modem Property change: %s", err)
				continue watchloop
			}
			switch propName {
			case "Interfaces":
				modem.handleInterfacesChanged(propValue)
			case "Online":
				modem.handleOnlineState(propValue)
			default:
				continue watchloop
			}
		case msg, ok := <-modem.simSignal.C:
			if !ok {
				modem.simSignal.C = nil
				continue watchloop
			}
			if err := msg.Args(&propName, &propValue); err != nil {
				log.Printf("Cannot interpret Sim Property change: %s", err)
				continue watchloop
			}
			if propName != "SubscriberIdentity" {
				continue watchloop
			}
			modem.handleIdentity(propValue)
		}
	}
}

func (modem *Modem) handleOnlineState(propValue dbus.Variant) {
	origState := modem.online
	modem.online = reflect.ValueOf(propValue.Value).Bool()
	if modem.online != origState {
		log.Printf("Modem online: %t", modem.online)
	}
}

func (modem *Modem) handleIdentity(propValue dbus.Variant) {
	identity := reflect.ValueOf(propValue.Value).String()
	if identity == "" && modem.identity != "" {
		log.Printf("Identity before remove %s", modem.identity)
		modem.withdraw()
		modem.identity = ""
	}
	if identity != "" && modem.identity == "" {
		modem.identity = identity
		modem.announce()
	}
}

// announce exports the modem's service once both its identity and
// every required interface are known; announce is a noop until then
// and after the first announcement.
func (modem *Modem) announce() {
	if modem.announced || modem.identity == "" || !modem.Ready() {
		return
	}
	log.Printf("Identity added %s", modem.identity)
	modem.announced = true
	modem.IdentityAdded <- modem.identity
}

func (modem *Modem) withdraw() {
	if !modem.announced {
		return
	}
	modem.announced = false
	modem.IdentityRemoved <- modem.identity
}

// handleInterfacesChanged reconciles the tracker against the modem's
// advertised interface list and derives the push availability state
// from the result.
func (modem *Modem) handleInterfacesChanged(interfaces dbus.Variant) {
	added, removed := modem.tracker.Reconcile(variantToStrings(interfaces))
	if len(added) != 0 || len(removed) != 0 {
		log.Printf("Modem %s interfaces added %v removed %v", modem.Modem, added, removed)
	}

	origState := modem.pushInterfaceAvailable
	modem.pushInterfaceAvailable = modem.tracker.Has(PUSH_NOTIFICATION_INTERFACE)
	if modem.pushInterfaceAvailable != origState {
		log.Printf("Push interface state: %t", modem.pushInterfaceAvailable)
		if modem.pushInterfaceAvailable {
			modem.PushInterfaceAvailable <- true
		} else if modem.PushAgent.Registered {
			modem.PushInterfaceAvailable <- false
		}
	}

	if modem.Ready() {
		modem.announce()
	} else {
		modem.withdraw()
	}
}

func (modem *Modem) getProperty(interfaceName, propertyName string) (*dbus.Variant, error) {
	errorString := "Cannot retrieve %s from %s for %s: %s"
	rilObj := modem.conn.Object(OFONO_SENDER, modem.Modem)
	if reply, err := rilObj.Call(interfaceName, "GetProperties"); err == nil {
		var property PropertiesType
		if err := reply.Args(&property); err != nil {
			return nil, fmt.Errorf(errorString, propertyName, interfaceName, modem.Modem, err)
		}
		if v, ok := property[propertyName]; ok {
			return &v, nil
		}
		return nil, fmt.Errorf(errorString, propertyName, interfaceName, modem.Modem, "property not found")
	} else {
		return nil, fmt.Errorf(errorString, propertyName, interfaceName, modem.Modem, err)
	}
}

func (modem *Modem) Delete() {
	modem.withdraw()
	modem.tracker.Clear()
	modem.modemSignal.Cancel()
	modem.modemSignal.C = nil
	modem.simSignal.Cancel()
	modem.simSignal.C = nil
	modem.endWatch <- true
}
