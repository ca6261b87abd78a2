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

type TrackerTestSuite struct {
	tracker *Tracker
	props   map[string]PropertiesType
	fetched []string
}

var _ = Suite(&TrackerTestSuite{})

func (s *TrackerTestSuite) SetUpTest(c *C) {
	s.tracker = NewTracker(nil, nil, "/ril_0")
	s.props = map[string]PropertiesType{
		SIM_MANAGER_INTERFACE: {
			"Present": dbus.Variant{true},
		},
		CONNECTION_MANAGER_INTERFACE: {
			"Attached": dbus.Variant{false},
		},
	}
	s.fetched = nil
	getInterfaceProps = func(conn *dbus.Connection, path dbus.ObjectPath, iface string) (PropertiesType, error) {
		s.fetched = append(s.fetched, iface)
		if props, ok := s.props[iface]; ok {
			return props, nil
		}
		return nil, errors.New("no properties")
	}
	watchInterfaceProps = func(conn *dbus.Connection, path dbus.ObjectPath, iface string) (*dbus.SignalWatch, error) {
		return nil, nil
	}
}

func (s *TrackerTestSuite) TestReconcileAdds(c *C) {
	added, removed := s.tracker.Reconcile([]string{SIM_MANAGER_INTERFACE, CONNECTION_MANAGER_INTERFACE})
	c.Check(added, DeepEquals, []string{CONNECTION_MANAGER_INTERFACE, SIM_MANAGER_INTERFACE})
	c.Check(removed, HasLen, 0)
	c.Check(s.tracker.Has(SIM_MANAGER_INTERFACE), Equals, true)
	c.Check(s.tracker.Has(CONNECTION_MANAGER_INTERFACE), Equals, true)
}

func (s *TrackerTestSuite) TestReconcileIsIdempotent(c *C) {
	list := []string{SIM_MANAGER_INTERFACE, CONNECTION_MANAGER_INTERFACE}
	s.tracker.Reconcile(list)
	fetchedOnce := len(s.fetched)

	added, removed := s.tracker.Reconcile(list)
	c.Check(added, HasLen, 0)
	c.Check(removed, HasLen, 0)
	c.Check(len(s.fetched), Equals, fetchedOnce)
}

func (s *TrackerTestSuite) TestReconcileRemoves(c *C) {
	s.tracker.Reconcile([]string{SIM_MANAGER_INTERFACE, CONNECTION_MANAGER_INTERFACE})

	added, removed := s.tracker.Reconcile([]string{SIM_MANAGER_INTERFACE})
	c.Check(added, HasLen, 0)
	c.Check(removed, DeepEquals, []string{CONNECTION_MANAGER_INTERFACE})
	c.Check(s.tracker.Has(CONNECTION_MANAGER_INTERFACE), Equals, false)
	c.Check(s.tracker.Properties(CONNECTION_MANAGER_INTERFACE), IsNil)
}

func (s *TrackerTestSuite) TestFailingGetPropertiesStillTracks(c *C) {
	added, _ := s.tracker.Reconcile([]string{PUSH_NOTIFICATION_INTERFACE})
	c.Check(added, DeepEquals, []string{PUSH_NOTIFICATION_INTERFACE})
	c.Check(s.tracker.Has(PUSH_NOTIFICATION_INTERFACE), Equals, true)
	c.Check(s.tracker.Properties(PUSH_NOTIFICATION_INTERFACE), HasLen, 0)
}

func (s *TrackerTestSuite) TestPropertiesReturnsCopy(c *C) {
	s.tracker.Reconcile([]string{SIM_MANAGER_INTERFACE})

	props := s.tracker.Properties(SIM_MANAGER_INTERFACE)
	props["Present"] = dbus.Variant{false}

	again := s.tracker.Properties(SIM_MANAGER_INTERFACE)
	c.Check(again["Present"], DeepEquals, dbus.Variant{true})
}

func (s *TrackerTestSuite) TestPatchUpdatesSnapshotAndDispatches(c *C) {
	s.tracker.Reconcile([]string{CONNECTION_MANAGER_INTERFACE})

	var gotIface, gotProperty string
	var gotValue dbus.Variant
	s.tracker.OnPropertyChanged(CONNECTION_MANAGER_INTERFACE, func(iface, property string, value dbus.Variant) {
		gotIface, gotProperty, gotValue = iface, property, value
	})

	s.tracker.patch(CONNECTION_MANAGER_INTERFACE, "Attached", dbus.Variant{true})

	c.Check(gotIface, Equals, CONNECTION_MANAGER_INTERFACE)
	c.Check(gotProperty, Equals, "Attached")
	c.Check(gotValue, DeepEquals, dbus.Variant{true})
	props := s.tracker.Properties(CONNECTION_MANAGER_INTERFACE)
	c.Check(props["Attached"], DeepEquals, dbus.Variant{true})
}

func (s *TrackerTestSuite) TestPatchUntrackedInterfaceIsIgnored(c *C) {
	called := false
	s.tracker.OnPropertyChanged(SIM_MANAGER_INTERFACE, func(iface, property string, value dbus.Variant) {
		called = true
	})

	s.tracker.patch(SIM_MANAGER_INTERFACE, "Present", dbus.Variant{true})
	c.Check(called, Equals, false)
}
