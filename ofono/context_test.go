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
	"fmt"
	"testing"
	"time"

	"launchpad.net/go-dbus"
	. "launchpad.net/gocheck"
)

func Test(t *testing.T) { TestingT(t) }

type ContextTestSuite struct {
	modem    Modem
	contexts []OfonoContext
}

var _ = Suite(&ContextTestSuite{})

var proxy ProxyInfo

func makeGenericContextProperty(name, cType string, active, messageCenter, messageProxy bool) PropertiesType {
	p := make(PropertiesType)
	p["Name"] = dbus.Variant{name}
	p["Type"] = dbus.Variant{cType}
	p["Active"] = dbus.Variant{active}
	if messageCenter {
		p["MessageCenter"] = dbus.Variant{"http://messagecenter.com"}
	} else {
		p["MessageCenter"] = dbus.Variant{""}
	}
	if messageProxy {
		p["MessageProxy"] = dbus.Variant{proxy.String()}
	} else {
		p["MessageProxy"] = dbus.Variant{""}
	}
	return p
}

func (s *ContextTestSuite) SetUpTest(c *C) {
	s.modem = Modem{}
	s.contexts = []OfonoContext{}
	proxy = ProxyInfo{
		Host: "4.4.4.4",
		Port: 9999,
	}
	getOfonoProps = func(conn *dbus.Connection, objectPath dbus.ObjectPath, destination, iface, method string) (oProps []OfonoContext, err error) {
		return s.contexts, nil
	}
}

func (s *ContextTestSuite) TestNoContext(c *C) {
	contexts, err := s.modem.GetMMSContexts("")
	c.Check(contexts, HasLen, 0)
	c.Assert(err, DeepEquals, errors.New("No mms contexts found"))
}

func (s *ContextTestSuite) TestMMSOverInternet(c *C) {
	context1 := OfonoContext{
		ObjectPath: "/ril_0/context1",
		Properties: makeGenericContextProperty("Context1", contextTypeInternet, true, true, true),
	}
	s.contexts = append(s.contexts, context1)

	contexts, err := s.modem.GetMMSContexts("")
	c.Assert(err, IsNil)
	c.Assert(contexts, HasLen, 1)
	c.Check(contexts[0], DeepEquals, context1)
}

func (s *ContextTestSuite) TestMMSOverInactiveInternet(c *C) {
	context1 := OfonoContext{
		ObjectPath: "/ril_0/context1",
		Properties: makeGenericContextProperty("Context1", contextTypeInternet, false, true, true),
	}
	s.contexts = append(s.contexts, context1)

	contexts, err := s.modem.GetMMSContexts("")
	c.Check(contexts, HasLen, 0)
	c.Assert(err, DeepEquals, errors.New("No mms contexts found"))
}

func (s *ContextTestSuite) TestMMSOverMMS(c *C) {
	context1 := OfonoContext{
		ObjectPath: "/ril_0/context1",
		Properties: makeGenericContextProperty("Context1", contextTypeInternet, true, false, false),
	}
	s.contexts = append(s.contexts, context1)

	context2 := OfonoContext{
		ObjectPath: "/ril_0/context2",
		Properties: makeGenericContextProperty("Context2", contextTypeMMS, false, true, true),
	}
	s.contexts = append(s.contexts, context2)

	contexts, err := s.modem.GetMMSContexts("")
	c.Assert(err, IsNil)
	c.Assert(contexts, HasLen, 1)
	c.Check(contexts[0], DeepEquals, context2)
}

func (s *ContextTestSuite) TestMMSTypeIsCaseInsensitive(c *C) {
	context1 := OfonoContext{
		ObjectPath: "/ril_0/context1",
		Properties: makeGenericContextProperty("Context1", "MMS", false, true, true),
	}
	s.contexts = append(s.contexts, context1)

	contexts, err := s.modem.GetMMSContexts("")
	c.Assert(err, IsNil)
	c.Assert(contexts, HasLen, 1)
	c.Check(contexts[0], DeepEquals, context1)
}

func (s *ContextTestSuite) TestMMSPreferInternetOverMMS(c *C) {
	context1 := OfonoContext{
		ObjectPath: "/ril_0/context1",
		Properties: makeGenericContextProperty("Context1", contextTypeInternet, true, true, false),
	}
	s.contexts = append(s.contexts, context1)

	context2 := OfonoContext{
		ObjectPath: "/ril_0/context2",
		Properties: makeGenericContextProperty("Context2", contextTypeMMS, false, true, false),
	}
	s.contexts = append(s.contexts, context2)

	contexts, err := s.modem.GetMMSContexts("")
	c.Assert(err, IsNil)
	c.Assert(contexts, HasLen, 2)
	c.Check(contexts[0], DeepEquals, context1)
	c.Check(contexts[1], DeepEquals, context2)
}

func (s *ContextTestSuite) TestPreferredContextComesFirst(c *C) {
	context1 := OfonoContext{
		ObjectPath: "/ril_0/context1",
		Properties: makeGenericContextProperty("Context1", contextTypeMMS, false, true, true),
	}
	s.contexts = append(s.contexts, context1)

	context2 := OfonoContext{
		ObjectPath: "/ril_0/context2",
		Properties: makeGenericContextProperty("Context2", contextTypeMMS, false, true, true),
	}
	s.contexts = append(s.contexts, context2)

	contexts, err := s.modem.GetMMSContexts("/ril_0/context2")
	c.Assert(err, IsNil)
	c.Assert(contexts, HasLen, 2)
	c.Check(contexts[0], DeepEquals, context2)
	c.Check(contexts[1], DeepEquals, context1)
}

func (s *ContextTestSuite) TestGetProxy(c *C) {
	context := OfonoContext{
		ObjectPath: "/ril_0/context1",
		Properties: makeGenericContextProperty("Context1", contextTypeInternet, true, true, true),
	}

	p, err := context.GetProxy()
	c.Assert(err, IsNil)
	c.Check(p, DeepEquals, proxy)
}

func (s *ContextTestSuite) TestGetProxyNoProxy(c *C) {
	context := OfonoContext{
		ObjectPath: "/ril_0/context1",
		Properties: makeGenericContextProperty("Context1", contextTypeInternet, true, true, false),
	}

	p, err := context.GetProxy()
	c.Assert(err, IsNil)
	c.Check(p, DeepEquals, ProxyInfo{})
}

func (s *ContextTestSuite) TestGetProxyWithHTTP(c *C) {
	context := OfonoContext{
		ObjectPath: "/ril_0/context1",
		Properties: makeGenericContextProperty("Context1", contextTypeInternet, true, true, true),
	}
	context.Properties["MessageProxy"] = dbus.Variant{fmt.Sprintf("http://%s:%d", proxy.Host, proxy.Port)}

	p, err := context.GetProxy()
	c.Assert(err, IsNil)
	c.Check(p, DeepEquals, proxy)
}

func (s *ContextTestSuite) TestGetProxyNoPortDefaultsTo80(c *C) {
	context := OfonoContext{
		ObjectPath: "/ril_0/context1",
		Properties: makeGenericContextProperty("Context1", contextTypeInternet, true, true, true),
	}
	context.Properties["MessageProxy"] = dbus.Variant{"proxy.operator.com"}

	p, err := context.GetProxy()
	c.Assert(err, IsNil)
	c.Check(p, DeepEquals, ProxyInfo{Host: "proxy.operator.com", Port: 80})
}

func (s *ContextTestSuite) TestForceActivateKeepsRetrying(c *C) {
	context1 := OfonoContext{
		ObjectPath: "/ril_0/context1",
		Properties: makeGenericContextProperty("Context1", contextTypeMMS, false, true, true),
	}
	s.contexts = append(s.contexts, context1)

	origDelay := contextRetryDelay
	origSet := setContextProperty
	defer func() {
		contextRetryDelay = origDelay
		setContextProperty = origSet
	}()
	contextRetryDelay = 0

	failures := 50
	attempts := 0
	setContextProperty = func(conn *dbus.Connection, objectPath dbus.ObjectPath, property string, value dbus.Variant) error {
		attempts++
		if attempts <= failures {
			return errors.New("context not ready")
		}
		return nil
	}

	context, err := s.modem.ForceActivateMMSContext("", nil)
	c.Assert(err, IsNil)
	c.Check(context.ObjectPath, Equals, context1.ObjectPath)
	c.Check(attempts > failures, Equals, true)
}

func (s *ContextTestSuite) TestForceActivateHonorsCancel(c *C) {
	context1 := OfonoContext{
		ObjectPath: "/ril_0/context1",
		Properties: makeGenericContextProperty("Context1", contextTypeMMS, false, true, true),
	}
	s.contexts = append(s.contexts, context1)

	origDelay := contextRetryDelay
	origSet := setContextProperty
	defer func() {
		contextRetryDelay = origDelay
		setContextProperty = origSet
	}()
	contextRetryDelay = time.Millisecond

	setContextProperty = func(conn *dbus.Connection, objectPath dbus.ObjectPath, property string, value dbus.Variant) error {
		return errors.New("context not ready")
	}

	cancel := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := s.modem.ForceActivateMMSContext("", cancel)
		done <- err
	}()
	close(cancel)

	select {
	case err := <-done:
		c.Assert(err, NotNil)
	case <-time.After(5 * time.Second):
		c.Fatal("force activation did not stop on cancel")
	}
}
