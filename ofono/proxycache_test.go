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

type ProxyCacheTestSuite struct {
	cache       *ProxyCache
	introspects int
}

var _ = Suite(&ProxyCacheTestSuite{})

const modemIntrospection = `<node>
	<interface name="org.ofono.Modem"/>
	<interface name="org.ofono.SimManager"/>
	<interface name="org.ofono.ConnectionManager"/>
</node>`

func (s *ProxyCacheTestSuite) SetUpTest(c *C) {
	s.cache = NewProxyCache(nil)
	s.introspects = 0
	introspectObject = func(conn *dbus.Connection, destination string, path dbus.ObjectPath) (string, error) {
		s.introspects++
		return modemIntrospection, nil
	}
	newObjectProxy = func(conn *dbus.Connection, destination string, path dbus.ObjectPath) *dbus.ObjectProxy {
		return &dbus.ObjectProxy{}
	}
}

func (s *ProxyCacheTestSuite) TestResolvesImplementedInterface(c *C) {
	proxy := s.cache.Proxy(OFONO_SENDER, "/ril_0", SIM_MANAGER_INTERFACE)
	c.Check(proxy, NotNil)
	c.Check(s.introspects, Equals, 1)
}

func (s *ProxyCacheTestSuite) TestIntrospectsOncePerPath(c *C) {
	s.cache.Proxy(OFONO_SENDER, "/ril_0", SIM_MANAGER_INTERFACE)
	s.cache.Proxy(OFONO_SENDER, "/ril_0", CONNECTION_MANAGER_INTERFACE)
	s.cache.Proxy(OFONO_SENDER, "/ril_0", MODEM_INTERFACE)
	c.Check(s.introspects, Equals, 1)
}

func (s *ProxyCacheTestSuite) TestAbsentInterfaceIsNilAndNotRetried(c *C) {
	proxy := s.cache.Proxy(OFONO_SENDER, "/ril_0", PUSH_NOTIFICATION_INTERFACE)
	c.Check(proxy, IsNil)

	proxy = s.cache.Proxy(OFONO_SENDER, "/ril_0", PUSH_NOTIFICATION_INTERFACE)
	c.Check(proxy, IsNil)
	c.Check(s.introspects, Equals, 1)
}

func (s *ProxyCacheTestSuite) TestRepeatedLookupIsMemoized(c *C) {
	first := s.cache.Proxy(OFONO_SENDER, "/ril_0", SIM_MANAGER_INTERFACE)
	second := s.cache.Proxy(OFONO_SENDER, "/ril_0", SIM_MANAGER_INTERFACE)
	c.Check(first, Equals, second)
	c.Check(s.introspects, Equals, 1)
}

func (s *ProxyCacheTestSuite) TestInvalidateDropsPath(c *C) {
	s.cache.Proxy(OFONO_SENDER, "/ril_0", SIM_MANAGER_INTERFACE)
	s.cache.Invalidate("/ril_0")

	s.cache.Proxy(OFONO_SENDER, "/ril_0", SIM_MANAGER_INTERFACE)
	c.Check(s.introspects, Equals, 2)
}

func (s *ProxyCacheTestSuite) TestForgetResolvesAgain(c *C) {
	s.cache.Proxy(OFONO_SENDER, "/ril_0", SIM_MANAGER_INTERFACE)
	s.cache.Forget(OFONO_SENDER, "/ril_0", SIM_MANAGER_INTERFACE)

	proxy := s.cache.Proxy(OFONO_SENDER, "/ril_0", SIM_MANAGER_INTERFACE)
	c.Check(proxy, NotNil)
	c.Check(s.introspects, Equals, 2)
}

func (s *ProxyCacheTestSuite) TestSeparatePathsIntrospectSeparately(c *C) {
	s.cache.Proxy(OFONO_SENDER, "/ril_0", SIM_MANAGER_INTERFACE)
	s.cache.Proxy(OFONO_SENDER, "/ril_1", SIM_MANAGER_INTERFACE)
	c.Check(s.introspects, Equals, 2)
}
