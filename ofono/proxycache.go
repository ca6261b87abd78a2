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
	"encoding/xml"
	"log"
	"sync"

	"launchpad.net/go-dbus"
)

type proxyKey struct {
	destination string
	path        dbus.ObjectPath
	iface       string
}

// ProxyCache memoizes object proxies keyed by destination, path and
// interface. The first lookup for a path introspects the remote object
// once and records which interfaces it implements; lookups for
// interfaces the object does not implement are cached as absent so the
// question is never asked twice. A nil result means the capability is
// not available, not that something failed.
type ProxyCache struct {
	conn       *dbus.Connection
	m          sync.Mutex
	proxies    map[proxyKey]*dbus.ObjectProxy
	interfaces map[dbus.ObjectPath]map[string]bool
}

type introspectDocument struct {
	Interfaces []struct {
		Name string `xml:"name,attr"`
	} `xml:"interface"`
}

var introspectObject = func(conn *dbus.Connection, destination string, path dbus.ObjectPath) (string, error) {
	obj := conn.Object(destination, path)
	reply, err := obj.Call(INTROSPECTABLE_INTERFACE, "Introspect")
	if err != nil {
		return "", err
	}
	var document string
	if err := reply.Args(&document); err != nil {
		return "", err
	}
	return document, nil
}

var newObjectProxy = func(conn *dbus.Connection, destination string, path dbus.ObjectPath) *dbus.ObjectProxy {
	return conn.Object(destination, path)
}

func NewProxyCache(conn *dbus.Connection) *ProxyCache {
	return &ProxyCache{
		conn:       conn,
		proxies:    make(map[proxyKey]*dbus.ObjectProxy),
		interfaces: make(map[dbus.ObjectPath]map[string]bool),
	}
}

// Proxy returns the cached object proxy for the given interface on the
// given object, or nil if the object does not implement it.
func (cache *ProxyCache) Proxy(destination string, path dbus.ObjectPath, iface string) *dbus.ObjectProxy {
	cache.m.Lock()
	defer cache.m.Unlock()

	key := proxyKey{destination, path, iface}
	if proxy, ok := cache.proxies[key]; ok {
		return proxy
	}
	implemented, ok := cache.interfaces[path]
	if !ok {
		implemented = cache.introspect(destination, path)
		cache.interfaces[path] = implemented
	}
	if !implemented[iface] {
		cache.proxies[key] = nil
		return nil
	}
	proxy := newObjectProxy(cache.conn, destination, path)
	cache.proxies[key] = proxy
	return proxy
}

func (cache *ProxyCache) introspect(destination string, path dbus.ObjectPath) map[string]bool {
	implemented := make(map[string]bool)
	document, err := introspectObject(cache.conn, destination, path)
	if err != nil {
		log.Printf("Cannot introspect %s: %s", path, err)
		return implemented
	}
	var parsed introspectDocument
	if err := xml.Unmarshal([]byte(document), &parsed); err != nil {
		log.Printf("Cannot parse introspection data for %s: %s", path, err)
		return implemented
	}
	for _, iface := range parsed.Interfaces {
		implemented[iface.Name] = true
	}
	return implemented
}

// Invalidate drops all cached entries for an object, typically because
// it was removed from the bus.
func (cache *ProxyCache) Invalidate(path dbus.ObjectPath) {
	cache.m.Lock()
	defer cache.m.Unlock()

	delete(cache.interfaces, path)
	for key := range cache.proxies {
		if key.path == path {
			delete(cache.proxies, key)
		}
	}
}

// Forget drops a single interface entry for an object. The object's
// introspection record is dropped too, so the next lookup for any of
// its interfaces asks the bus again; modem objects grow and shrink
// their interface list at runtime and a stale record would turn a
// re-added interface into a permanent miss.
func (cache *ProxyCache) Forget(destination string, path dbus.ObjectPath, iface string) {
	cache.m.Lock()
	defer cache.m.Unlock()

	delete(cache.proxies, proxyKey{destination, path, iface})
	delete(cache.interfaces, path)
}
