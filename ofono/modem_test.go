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
	"errors"

	"launchpad.net/go-dbus"
	. "launchpad.net/gocheck"
)

type ModemTestSuite struct {
	modem *Modem
}

var _ = Suite(&ModemTestSuite{})

func (s *ModemTestSuite) SetUpTest(c *C) {
	getInterfaceProps = func(conn *dbus.Connection, path dbus.ObjectPath, iface string) (PropertiesType, error) {
		return nil, errors.New("no properties")
	}
	watchInterfaceProps = func(conn *dbus.Connection, path dbus.ObjectPath, iface string) (*dbus.SignalWatch, error) {
		return nil, nil
	}
	s.modem = NewModem(nil, nil, "/ril_0")
}

func (s *ModemTestSuite) TestNotReadyWithoutRequiredInterfaces(c *C) {
	c.Check(s.modem.Ready(), Equals, false)

	s.modem.Tracker().Reconcile([]string{SIM_MANAGER_INTERFACE, CONNECTION_MANAGER_INTERFACE})
	c.Check(s.modem.Ready(), Equals, false)
}

func (s *ModemTestSuite) TestReadyWithRequiredInterfaces(c *C) {
	s.modem.Tracker().Reconcile([]string{
		SIM_MANAGER_INTERFACE,
		CONNECTION_MANAGER_INTERFACE,
		PUSH_NOTIFICATION_INTERFACE,
	})
	c.Check(s.modem.Ready(), Equals, true)
}

func (s *ModemTestSuite) TestIdentityAnnouncedOnlyWhenReady(c *C) {
	added := make(chan string, 1)
	go func() { added <- <-s.modem.IdentityAdded }()
	go func() {
		for range s.modem.PushInterfaceAvailable {
		}
	}()

	s.modem.handleIdentity(dbus.Variant{"310150123456789"})
	c.Check(s.modem.announced, Equals, false)

	s.modem.handleInterfacesChanged(dbus.Variant{[]string{
		SIM_MANAGER_INTERFACE,
		CONNECTION_MANAGER_INTERFACE,
	}})
	c.Check(s.modem.announced, Equals, false)

	s.modem.handleInterfacesChanged(dbus.Variant{[]string{
		SIM_MANAGER_INTERFACE,
		CONNECTION_MANAGER_INTERFACE,
		PUSH_NOTIFICATION_INTERFACE,
	}})
	c.Check(<-added, Equals, "310150123456789")
	c.Check(s.modem.announced, Equals, true)
}

func (s *ModemTestSuite) TestReadinessLossWithdrawsIdentity(c *C) {
	added := make(chan string, 1)
	removed := make(chan string, 1)
	go func() { added <- <-s.modem.IdentityAdded }()
	go func() { removed <- <-s.modem.IdentityRemoved }()
	go func() {
		for range s.modem.PushInterfaceAvailable {
		}
	}()

	s.modem.handleInterfacesChanged(dbus.Variant{[]string{
		SIM_MANAGER_INTERFACE,
		CONNECTION_MANAGER_INTERFACE,
		PUSH_NOTIFICATION_INTERFACE,
	}})
	s.modem.handleIdentity(dbus.Variant{"310150123456789"})
	c.Assert(<-added, Equals, "310150123456789")

	s.modem.handleInterfacesChanged(dbus.Variant{[]string{SIM_MANAGER_INTERFACE}})
	c.Check(<-removed, Equals, "310150123456789")
	c.Check(s.modem.announced, Equals, false)
}

func (s *ModemTestSuite) TestReadinessLostOnInterfaceRemoval(c *C) {
	s.modem.Tracker().Reconcile([]string{
		SIM_MANAGER_INTERFACE,
		CONNECTION_MANAGER_INTERFACE,
		PUSH_NOTIFICATION_INTERFACE,
	})
	c.Assert(s.modem.Ready(), Equals, true)

	s.modem.Tracker().Reconcile([]string{SIM_MANAGER_INTERFACE, CONNECTION_MANAGER_INTERFACE})
	c.Check(s.modem.Ready(), Equals, false)
}
