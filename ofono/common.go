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
	"reflect"

	"launchpad.net/go-dbus"
)

const (
	AGENT_TAG                         = dbus.ObjectPath("/mmsd")
	PUSH_NOTIFICATION_INTERFACE       = "org.ofono.PushNotification"
	PUSH_NOTIFICATION_AGENT_INTERFACE = "org.ofono.PushNotificationAgent"
	CONNECTION_MANAGER_INTERFACE      = "org.ofono.ConnectionManager"
	CONNECTION_CONTEXT_INTERFACE      = "org.ofono.ConnectionContext"
	SIM_MANAGER_INTERFACE             = "org.ofono.SimManager"
	OFONO_MANAGER_INTERFACE           = "org.ofono.Manager"
	OFONO_SENDER                      = "org.ofono"
	MODEM_INTERFACE                   = "org.ofono.Modem"
	INTROSPECTABLE_INTERFACE          = "org.freedesktop.DBus.Introspectable"
	DBUS_DAEMON_NAME                  = "org.freedesktop.DBus"
	DBUS_DAEMON_PATH                  = dbus.ObjectPath("/org/freedesktop/DBus")
)

type PropertiesType map[string]dbus.Variant

var getModems = func(conn *dbus.Connection) (modemPaths []dbus.ObjectPath, err error) {
	modemsReply, err := getOfonoProps(conn, "/", OFONO_SENDER, OFONO_MANAGER_INTERFACE, "GetModems")
	if err != nil {
		return nil, err
	}
	for _, modemReply := range modemsReply {
		modemPaths = append(modemPaths, modemReply.ObjectPath)
	}
	return modemPaths, nil
}

func connectToPropertySignal(conn *dbus.Connection, path dbus.ObjectPath, inter string) (*dbus.SignalWatch, error) {
	w, err := conn.WatchSignal(&dbus.MatchRule{
		Type:      dbus.TypeSignal,
		Sender:    OFONO_SENDER,
		Interface: inter,
		Member:    "PropertyChanged",
		Path:      path})
	return w, err
}

func connectToSignal(conn *dbus.Connection, path dbus.ObjectPath, inter, member string) (*dbus.SignalWatch, error) {
	w, err := conn.WatchSignal(&dbus.MatchRule{
		Type:      dbus.TypeSignal,
		Sender:    OFONO_SENDER,
		Interface: inter,
		Member:    member,
		Path:      path})
	return w, err
}

func connectToNameOwnerChanged(conn *dbus.Connection) (*dbus.SignalWatch, error) {
	w, err := conn.WatchSignal(&dbus.MatchRule{
		Type:      dbus.TypeSignal,
		Sender:    DBUS_DAEMON_NAME,
		Interface: DBUS_DAEMON_NAME,
		Member:    "NameOwnerChanged",
		Path:      DBUS_DAEMON_PATH})
	return w, err
}

// variantToStrings unpacks a Variant carrying an array of strings, as
// received for the modem Interfaces property.
func variantToStrings(v dbus.Variant) []string {
	value := reflect.ValueOf(v.Value)
	if value.Kind() != reflect.Slice {
		return nil
	}
	names := make([]string, 0, value.Len())
	for i := 0; i < value.Len(); i++ {
		if s, ok := value.Index(i).Interface().(string); ok {
			names = append(names, s)
		}
	}
	return names
}
