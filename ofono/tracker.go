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
	"sort"
	"sync"

	"launchpad.net/go-dbus"
)

// PropertyHandler is invoked for every property change on a tracked
// interface, after the tracker has patched its own snapshot.
type PropertyHandler func(iface, property string, value dbus.Variant)

// InterfaceEntry is one tracked capability interface on a modem: its
// last known property snapshot and the live subscription feeding it.
type InterfaceEntry struct {
	Name  string
	props PropertiesType
	watch *dbus.SignalWatch
	done  chan struct{}
}

// Tracker maintains the set of capability interfaces a modem currently
// exposes. Interfaces are resolved through the proxy cache, their
// properties fetched once and patched by PropertyChanged signals
// thereafter. Changes are routed to handlers through a dispatch table
// keyed by interface name.
type Tracker struct {
	conn     *dbus.Connection
	cache    *ProxyCache
	modem    dbus.ObjectPath
	m        sync.Mutex
	entries  map[string]*InterfaceEntry
	handlers map[string]PropertyHandler
}

var getInterfaceProps = func(conn *dbus.Connection, path dbus.ObjectPath, iface string) (PropertiesType, error) {
	obj := conn.Object(OFONO_SENDER, path)
	reply, err := obj.Call(iface, "GetProperties")
	if err != nil {
		return nil, err
	}
	var props PropertiesType
	if err := reply.Args(&props); err != nil {
		return nil, err
	}
	return props, nil
}

var watchInterfaceProps = func(conn *dbus.Connection, path dbus.ObjectPath, iface string) (*dbus.SignalWatch, error) {
	return connectToPropertySignal(conn, path, iface)
}

func NewTracker(conn *dbus.Connection, cache *ProxyCache, modem dbus.ObjectPath) *Tracker {
	return &Tracker{
		conn:     conn,
		cache:    cache,
		modem:    modem,
		entries:  make(map[string]*InterfaceEntry),
		handlers: make(map[string]PropertyHandler),
	}
}

// OnPropertyChanged registers the handler receiving property changes
// for iface. Registering again replaces the previous handler.
func (tracker *Tracker) OnPropertyChanged(iface string, handler PropertyHandler) {
	tracker.m.Lock()
	defer tracker.m.Unlock()
	tracker.handlers[iface] = handler
}

// Reconcile brings the tracked set in line with the advertised
// interface list, adding and removing entries as needed. Calling it
// twice with the same list is a no-op the second time. It returns the
// names that were actually added and removed.
func (tracker *Tracker) Reconcile(names []string) (added, removed []string) {
	advertised := make(map[string]bool, len(names))
	for _, name := range names {
		advertised[name] = true
	}

	tracker.m.Lock()
	for name := range tracker.entries {
		if !advertised[name] {
			removed = append(removed, name)
		}
	}
	for _, name := range names {
		if _, ok := tracker.entries[name]; !ok {
			added = append(added, name)
		}
	}
	tracker.m.Unlock()

	sort.Strings(added)
	sort.Strings(removed)
	for _, name := range removed {
		tracker.removeInterface(name)
	}
	for _, name := range added {
		tracker.addInterface(name)
	}
	return added, removed
}

// addInterface resolves the interface through the proxy cache, takes
// an initial property snapshot and subscribes to changes. A failing
// GetProperties is tolerated: some interfaces expose no readable
// properties yet still emit signals, so an empty snapshot is stored
// and the subscription made anyway.
func (tracker *Tracker) addInterface(name string) {
	tracker.m.Lock()
	if _, ok := tracker.entries[name]; ok {
		tracker.m.Unlock()
		return
	}
	tracker.m.Unlock()

	if tracker.cache != nil && tracker.cache.Proxy(OFONO_SENDER, tracker.modem, name) == nil {
		log.Printf("Interface %s advertised by %s but not resolvable", name, tracker.modem)
	}

	props, err := getInterfaceProps(tracker.conn, tracker.modem, name)
	if err != nil {
		log.Printf("Cannot get properties for %s on %s: %s", name, tracker.modem, err)
		props = make(PropertiesType)
	}
	entry := &InterfaceEntry{Name: name, props: props, done: make(chan struct{})}

	watch, err := watchInterfaceProps(tracker.conn, tracker.modem, name)
	if err != nil {
		log.Printf("Cannot watch properties for %s on %s: %s", name, tracker.modem, err)
	} else if watch != nil {
		entry.watch = watch
		go tracker.watchEntry(entry)
	}

	tracker.m.Lock()
	tracker.entries[name] = entry
	tracker.m.Unlock()
}

// removeInterface cancels the subscription and drops the snapshot and
// the proxy cache entry; readers see the interface as absent from now
// on.
func (tracker *Tracker) removeInterface(name string) {
	tracker.m.Lock()
	entry, ok := tracker.entries[name]
	if ok {
		delete(tracker.entries, name)
	}
	tracker.m.Unlock()
	if !ok {
		return
	}
	close(entry.done)
	if entry.watch != nil {
		entry.watch.Cancel()
	}
	if tracker.cache != nil {
		tracker.cache.Forget(OFONO_SENDER, tracker.modem, name)
	}
}

func (tracker *Tracker) watchEntry(entry *InterfaceEntry) {
	for {
		select {
		case <-entry.done:
			return
		case msg, ok := <-entry.watch.C:
			if !ok {
				return
			}
			var property string
			var value dbus.Variant
			if err := msg.Args(&property, &value); err != nil {
				log.Printf("Cannot interpret %s property change: %s", entry.Name, err)
				continue
			}
			tracker.patch(entry.Name, property, value)
		}
	}
}

func (tracker *Tracker) patch(iface, property string, value dbus.Variant) {
	tracker.m.Lock()
	entry, ok := tracker.entries[iface]
	if ok {
		entry.props[property] = value
	}
	handler := tracker.handlers[iface]
	tracker.m.Unlock()
	if ok && handler != nil {
		handler(iface, property, value)
	}
}

// Has reports whether the named interface is currently tracked.
func (tracker *Tracker) Has(name string) bool {
	tracker.m.Lock()
	defer tracker.m.Unlock()
	_, ok := tracker.entries[name]
	return ok
}

// Interfaces returns the sorted names of all tracked interfaces.
func (tracker *Tracker) Interfaces() []string {
	tracker.m.Lock()
	defer tracker.m.Unlock()
	names := make([]string, 0, len(tracker.entries))
	for name := range tracker.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Properties returns a copy of the last known property snapshot for
// the named interface, or nil if it is not tracked. The copy is
// immutable from the tracker's point of view.
func (tracker *Tracker) Properties(name string) PropertiesType {
	tracker.m.Lock()
	defer tracker.m.Unlock()
	entry, ok := tracker.entries[name]
	if !ok {
		return nil
	}
	props := make(PropertiesType, len(entry.props))
	for k, v := range entry.props {
		props[k] = v
	}
	return props
}

// Clear removes every tracked interface, used when the modem goes
// away.
func (tracker *Tracker) Clear() {
	for _, name := range tracker.Interfaces() {
		tracker.removeInterface(name)
	}
	if tracker.cache != nil {
		tracker.cache.Invalidate(tracker.modem)
	}
}
