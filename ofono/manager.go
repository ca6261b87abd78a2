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
	"log"
	"strings"
	"sync"
	"time"

	"launchpad.net/go-dbus"
)

// modemPathPrefix selects the modem objects this daemon serves; other
// modem drivers are left alone.
var modemPathPrefix = "/ril_"

// discoveryRetryDelay is the pause between discovery passes while no
// eligible modem is present.
var discoveryRetryDelay = 2 * time.Second

type Modems map[dbus.ObjectPath]*Modem

type ModemManager struct {
	ModemAdded   chan (*Modem)
	ModemRemoved chan (*Modem)
	modems       Modems
	conn         *dbus.Connection
	cache        *ProxyCache
	m            sync.Mutex
	discovering  bool
}

func NewModemManager(conn *dbus.Connection) *ModemManager {
	return &ModemManager{
		conn:         conn,
		cache:        NewProxyCache(conn),
		ModemAdded:   make(chan *Modem),
		ModemRemoved: make(chan *Modem),
		modems:       make(Modems),
	}
}

func (mm *ModemManager) Init() error {
	//Use a different connection for the modem signals to avoid go-dbus blocking issues
	conn, err := dbus.Connect(dbus.SystemBus)
	if err != nil {
		return err
	}

	modemAddedSignal, err := connectToSignal(conn, "/", OFONO_MANAGER_INTERFACE, "ModemAdded")
	if err != nil {
		return err
	}
	modemRemovedSignal, err := connectToSignal(conn, "/", OFONO_MANAGER_INTERFACE, "ModemRemoved")
	if err != nil {
		return err
	}
	go mm.watchModems(modemAddedSignal, modemRemovedSignal)

	nameOwnerSignal, err := connectToNameOwnerChanged(conn)
	if err != nil {
		return err
	}
	go mm.watchOfonoPresence(nameOwnerSignal)

	go mm.Discover(conn)
	return nil
}

// Discover enumerates modems until at least one eligible modem is
// found, sleeping between passes; it never gives up. Only one pass
// runs at a time; modem-added signals arriving during a pass are
// skipped to avoid exporting a modem twice.
func (mm *ModemManager) Discover(conn *dbus.Connection) {
	mm.m.Lock()
	if mm.discovering {
		mm.m.Unlock()
		return
	}
	mm.discovering = true
	mm.m.Unlock()

	defer func() {
		mm.m.Lock()
		mm.discovering = false
		mm.m.Unlock()
	}()

	for {
		modemPaths, err := getModems(conn)
		if err != nil {
			log.Print("Cannot enumerate modems: ", err)
		}
		var eligible []dbus.ObjectPath
		for _, objectPath := range modemPaths {
			if strings.HasPrefix(string(objectPath), modemPathPrefix) {
				eligible = append(eligible, objectPath)
			}
		}
		if len(eligible) > 0 {
			for _, objectPath := range eligible {
				mm.addModem(objectPath)
			}
			return
		}
		time.Sleep(discoveryRetryDelay)
	}
}

func (mm *ModemManager) discoveryInProgress() bool {
	mm.m.Lock()
	defer mm.m.Unlock()
	return mm.discovering
}

func (mm *ModemManager) watchModems(modemAdded, modemRemoved *dbus.SignalWatch) {
	for {
		var objectPath dbus.ObjectPath
		select {
		case m := <-modemAdded.C:
			var signalProps PropertiesType
			if err := m.Args(&objectPath, &signalProps); err != nil {
				log.Print(err)
				continue
			}
			if !strings.HasPrefix(string(objectPath), modemPathPrefix) {
				continue
			}
			if mm.discoveryInProgress() {
				log.Printf("Discovery in progress, skipping modem added signal for %s", objectPath)
				continue
			}
			mm.addModem(objectPath)
		case m := <-modemRemoved.C:
			if err := m.Args(&objectPath); err != nil {
				log.Print(err)
				continue
			}
			mm.removeModem(objectPath)
		}
	}
}

func (mm *ModemManager) watchOfonoPresence(nameOwnerChanged *dbus.SignalWatch) {
	for msg := range nameOwnerChanged.C {
		var name, oldOwner, newOwner string
		if err := msg.Args(&name, &oldOwner, &newOwner); err != nil {
			log.Print(err)
			continue
		}
		if name != OFONO_SENDER {
			continue
		}
		if newOwner == "" {
			log.Print("ofono dropped off the bus, tearing down modems")
			mm.removeAllModems()
		} else if oldOwner == "" {
			log.Print("ofono appeared on the bus, starting discovery")
			go mm.Discover(mm.conn)
		}
	}
}

func (mm *ModemManager) addModem(objectPath dbus.ObjectPath) {
	mm.m.Lock()
	if modem, ok := mm.modems[objectPath]; ok {
		log.Printf("Need to delete stale modem instance %s", modem.Modem)
		delete(mm.modems, objectPath)
		mm.m.Unlock()
		mm.ModemRemoved <- modem
		modem.Delete()
		mm.m.Lock()
	}
	modem := NewModem(mm.conn, mm.cache, objectPath)
	mm.modems[objectPath] = modem
	mm.m.Unlock()
	mm.ModemAdded <- modem
}

func (mm *ModemManager) removeModem(objectPath dbus.ObjectPath) {
	mm.m.Lock()
	modem, ok := mm.modems[objectPath]
	if ok {
		delete(mm.modems, objectPath)
	}
	mm.m.Unlock()
	if !ok {
		log.Printf("Cannot satisfy request to remove modem %s as it does not exist", objectPath)
		return
	}
	mm.ModemRemoved <- modem
	log.Printf("Deleting modem instance %s", modem.Modem)
	modem.Delete()
	mm.cache.Invalidate(objectPath)
}

func (mm *ModemManager) removeAllModems() {
	mm.m.Lock()
	paths := make([]dbus.ObjectPath, 0, len(mm.modems))
	for objectPath := range mm.modems {
		paths = append(paths, objectPath)
	}
	mm.m.Unlock()
	for _, objectPath := range paths {
		mm.removeModem(objectPath)
	}
}
