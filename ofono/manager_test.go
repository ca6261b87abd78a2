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
	"launchpad.net/go-dbus"
	. "launchpad.net/gocheck"
)

type ManagerTestSuite struct {
	origGetModems func(*dbus.Connection) ([]dbus.ObjectPath, error)
}

var _ = Suite(&ManagerTestSuite{})

func (s *ManagerTestSuite) SetUpTest(c *C) {
	s.origGetModems = getModems
}

func (s *ManagerTestSuite) TearDownTest(c *C) {
	getModems = s.origGetModems
}

// two overlapping Discover calls enumerate the bus once and export
// each modem once
func (s *ManagerTestSuite) TestConcurrentDiscoverRunsSinglePass(c *C) {
	passes := 0
	started := make(chan struct{})
	release := make(chan struct{})
	getModems = func(conn *dbus.Connection) ([]dbus.ObjectPath, error) {
		passes++
		close(started)
		<-release
		return []dbus.ObjectPath{"/ril_0"}, nil
	}

	mm := NewModemManager(nil)
	done := make(chan struct{})
	go func() {
		mm.Discover(nil)
		close(done)
	}()
	<-started
	c.Check(mm.discoveryInProgress(), Equals, true)

	// returns immediately while the first pass is still enumerating
	mm.Discover(nil)

	close(release)
	modem := <-mm.ModemAdded
	c.Check(modem.Modem, Equals, dbus.ObjectPath("/ril_0"))
	<-done
	c.Check(passes, Equals, 1)
	c.Check(mm.discoveryInProgress(), Equals, false)
}

func (s *ManagerTestSuite) TestDiscoverSkipsForeignModems(c *C) {
	getModems = func(conn *dbus.Connection) ([]dbus.ObjectPath, error) {
		return []dbus.ObjectPath{"/ril_0", "/sim900_0"}, nil
	}

	mm := NewModemManager(nil)
	go mm.Discover(nil)
	modem := <-mm.ModemAdded
	c.Check(modem.Modem, Equals, dbus.ObjectPath("/ril_0"))

	select {
	case extra := <-mm.ModemAdded:
		c.Fatalf("unexpected modem %s", extra.Modem)
	default:
	}
}
