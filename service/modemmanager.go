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

package service

import (
	"fmt"
	"log"
	"reflect"
	"strconv"

	"github.com/FuriLabs/mmsd4ofono/storage"
	"launchpad.net/go-dbus"
)

//SettingChange notifies the mediator that a carrier setting changed over
//the bus and may need to be written back to the mms context.
type SettingChange struct {
	Name  string
	Value string
}

//ModemManager exports org.ofono.mms.ModemManager next to the Manager
//interface on the same object path. Method calls arrive through the
//manager's dispatcher.
type ModemManager struct {
	conn       *dbus.Connection
	properties map[string]dbus.Variant
	// PushChan carries raw push payloads injected with PushNotify.
	PushChan chan []byte
	// ProcessQueueChan is kicked by ProcessMessageQueue.
	ProcessQueueChan chan struct{}
	// SettingsChan carries carrier setting changes for context write-back.
	SettingsChan chan SettingChange
}

func NewModemManager(conn *dbus.Connection) *ModemManager {
	properties := make(map[string]dbus.Variant)
	properties[carrierMMSCProperty] = dbus.Variant{""}
	properties[mmsAPNProperty] = dbus.Variant{""}
	properties[carrierMMSProxyProperty] = dbus.Variant{""}
	properties[defaultModemNumberProperty] = dbus.Variant{""}
	properties[modemNumberProperty] = dbus.Variant{""}
	properties[autoProcessOnConnectionProp] = dbus.Variant{true}
	properties[autoProcessSMSWAPProperty] = dbus.Variant{true}
	for k, v := range storage.ReadSection(storage.ModemManagerSection) {
		switch k {
		case autoProcessOnConnectionProp, autoProcessSMSWAPProperty:
			if b, err := strconv.ParseBool(v); err == nil {
				properties[k] = dbus.Variant{b}
			}
		case carrierMMSCProperty, mmsAPNProperty, carrierMMSProxyProperty,
			defaultModemNumberProperty, modemNumberProperty:
			properties[k] = dbus.Variant{v}
		}
	}
	return &ModemManager{
		conn:             conn,
		properties:       properties,
		PushChan:         make(chan []byte, 1),
		ProcessQueueChan: make(chan struct{}, 1),
		SettingsChan:     make(chan SettingChange, 4),
	}
}

func (mm *ModemManager) handleCall(msg *dbus.Message) *dbus.Message {
	switch msg.Member {
	case "PushNotify":
		var data []byte
		if err := msg.Args(&data); err != nil {
			return dbus.NewErrorMessage(msg, "Error.InvalidArguments", "Cannot parse push payload")
		}
		log.Printf("PushNotify with %d bytes", len(data))
		mm.PushChan <- data
		return dbus.NewMethodReturnMessage(msg)
	case "ViewSettings":
		reply := dbus.NewMethodReturnMessage(msg)
		if err := reply.AppendArgs(mm.properties); err != nil {
			return dbus.NewErrorMessage(msg, "Error.InvalidArguments", "Cannot marshal settings")
		}
		return reply
	case "ChangeSettings":
		var name string
		var value dbus.Variant
		if err := msg.Args(&name, &value); err != nil {
			return dbus.NewErrorMessage(msg, "Error.InvalidArguments", "Cannot parse setting")
		}
		if err := mm.changeSetting(name, value); err != nil {
			return dbus.NewErrorMessage(msg, "Error.InvalidArguments", err.Error())
		}
		return dbus.NewMethodReturnMessage(msg)
	case "ChangeAllSettings":
		settings := map[string]dbus.Variant{}
		if err := msg.Args(&settings); err != nil {
			return dbus.NewErrorMessage(msg, "Error.InvalidArguments", "Cannot parse settings")
		}
		for name := range settings {
			if err := mm.changeSetting(name, settings[name]); err != nil {
				return dbus.NewErrorMessage(msg, "Error.InvalidArguments", err.Error())
			}
		}
		return dbus.NewMethodReturnMessage(msg)
	case "ProcessMessageQueue":
		select {
		case mm.ProcessQueueChan <- struct{}{}:
		default:
		}
		return dbus.NewMethodReturnMessage(msg)
	default:
		log.Println("Received unknown method call on", msg.Interface, msg.Member)
		return dbus.NewErrorMessage(msg, "org.freedesktop.DBus.Error.UnknownMethod", "Unknown method")
	}
}

func (mm *ModemManager) changeSetting(name string, value dbus.Variant) error {
	switch name {
	case autoProcessOnConnectionProp, autoProcessSMSWAPProperty:
		v := reflect.ValueOf(value.Value)
		if v.Kind() != reflect.Bool {
			return fmt.Errorf("setting %s expects a boolean value", name)
		}
		mm.properties[name] = dbus.Variant{v.Bool()}
	case carrierMMSCProperty, mmsAPNProperty, carrierMMSProxyProperty,
		defaultModemNumberProperty, modemNumberProperty:
		v := reflect.ValueOf(value.Value)
		if v.Kind() != reflect.String {
			return fmt.Errorf("setting %s expects a string value", name)
		}
		mm.properties[name] = dbus.Variant{v.String()}
		select {
		case mm.SettingsChan <- SettingChange{Name: name, Value: v.String()}:
		default:
			log.Println("Dropping context write-back for", name)
		}
	default:
		return fmt.Errorf("unknown setting %s", name)
	}
	if err := mm.persist(); err != nil {
		return err
	}
	return mm.SignalSettingsChanged()
}

// UpdateFromModem refreshes the carrier settings from what the modem
// reports. Empty arguments leave the current value alone.
func (mm *ModemManager) UpdateFromModem(number, apn, mmsc, proxy string) error {
	changed := false
	update := func(name, value string) {
		if value == "" {
			return
		}
		if v, ok := mm.properties[name]; ok {
			if s, ok := v.Value.(string); ok && s == value {
				return
			}
		}
		mm.properties[name] = dbus.Variant{value}
		changed = true
	}
	update(modemNumberProperty, number)
	update(mmsAPNProperty, apn)
	update(carrierMMSCProperty, mmsc)
	update(carrierMMSProxyProperty, proxy)
	if !changed {
		return nil
	}
	if err := mm.persist(); err != nil {
		return err
	}
	return mm.SignalSettingsChanged()
}

// Setting returns the current string value of a carrier setting.
func (mm *ModemManager) Setting(name string) string {
	if v, ok := mm.properties[name]; ok {
		if s, ok := v.Value.(string); ok {
			return s
		}
	}
	return ""
}

// ModemNumber returns the subscriber number reported by the modem,
// falling back to the configured default.
func (mm *ModemManager) ModemNumber() string {
	if n := mm.Setting(modemNumberProperty); n != "" {
		return n
	}
	return mm.Setting(defaultModemNumberProperty)
}

// AutoProcessOnConnection reports whether the pending queue should be
// drained as soon as the modem attaches.
func (mm *ModemManager) AutoProcessOnConnection() bool {
	if v, ok := mm.properties[autoProcessOnConnectionProp]; ok {
		if b, ok := v.Value.(bool); ok {
			return b
		}
	}
	return true
}

// AutoProcessSMSWAP reports whether pushes delivered over SMS WAP should
// be processed without being asked.
func (mm *ModemManager) AutoProcessSMSWAP() bool {
	if v, ok := mm.properties[autoProcessSMSWAPProperty]; ok {
		if b, ok := v.Value.(bool); ok {
			return b
		}
	}
	return true
}

func (mm *ModemManager) persist() error {
	values := make(map[string]string, len(mm.properties))
	for name, v := range mm.properties {
		switch value := v.Value.(type) {
		case string:
			values[name] = value
		case bool:
			values[name] = strconv.FormatBool(value)
		}
	}
	return storage.ReplaceSection(storage.ModemManagerSection, values)
}

func (mm *ModemManager) SignalSettingsChanged() error {
	signal := dbus.NewSignalMessage(MMS_DBUS_PATH, MMS_MODEM_MANAGER_DBUS_IFACE, settingsChangedSignal)
	apn := mm.Setting(mmsAPNProperty)
	mmsc := mm.Setting(carrierMMSCProperty)
	proxy := mm.Setting(carrierMMSProxyProperty)
	if err := signal.AppendArgs(apn, mmsc, proxy); err != nil {
		return err
	}
	return mm.conn.Send(signal)
}

func (mm *ModemManager) SignalBearerHandlerError(code uint32) error {
	signal := dbus.NewSignalMessage(MMS_DBUS_PATH, MMS_MODEM_MANAGER_DBUS_IFACE, bearerHandlerErrorSignal)
	if err := signal.AppendArgs(code); err != nil {
		return err
	}
	return mm.conn.Send(signal)
}
