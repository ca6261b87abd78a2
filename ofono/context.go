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
	"log"
	"net"
	"reflect"
	"strconv"
	"strings"
	"time"

	"launchpad.net/go-dbus"
)

const (
	contextTypeInternet = "internet"
	contextTypeMMS      = "mms"
)

const (
	ofonoAttachInProgressError = "org.ofono.AttachInProgress"
	ofonoInProgressError       = "org.ofono.InProgress"
	ofonoNotAttachedError      = "org.ofono.Error.NotAttached"
)

// contextRetryDelay is the pause between activation attempts in the
// force-activation loop.
var contextRetryDelay = 2 * time.Second

type OfonoContext struct {
	ObjectPath dbus.ObjectPath
	Properties PropertiesType
}

type ProxyInfo struct {
	Host string
	Port uint64
}

func (p ProxyInfo) String() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

func (oContext OfonoContext) String() string {
	var s string
	s += fmt.Sprintf("ObjectPath: %s\n", oContext.ObjectPath)
	for k, v := range oContext.Properties {
		s += fmt.Sprint("\t", k, ": ", v.Value, "\n")
	}
	return s
}

var getOfonoProps = func(conn *dbus.Connection, objectPath dbus.ObjectPath, destination, iface, method string) (oProps []OfonoContext, err error) {
	obj := conn.Object(destination, objectPath)
	reply, err := obj.Call(iface, method)
	if err != nil || reply.Type == dbus.TypeError {
		return oProps, err
	}
	if err := reply.Args(&oProps); err != nil {
		return oProps, err
	}
	return oProps, err
}

var setContextProperty = func(conn *dbus.Connection, objectPath dbus.ObjectPath, property string, value dbus.Variant) error {
	obj := conn.Object(OFONO_SENDER, objectPath)
	_, err := obj.Call(CONNECTION_CONTEXT_INTERFACE, "SetProperty", property, value)
	return err
}

//SetContextProperty writes a property of the given connection context,
//used to push carrier settings changed over the bus back into ofono.
func (modem *Modem) SetContextProperty(context OfonoContext, property, value string) error {
	return setContextProperty(modem.conn, context.ObjectPath, property, dbus.Variant{value})
}

//ActivateMMSContext activates a context if necessary and returns the context
//to operate with MMS.
//
//If the context is already active it's a nop.
//Returns either the type=internet context or the type=mms, if none is found
//an error is returned.
func (modem *Modem) ActivateMMSContext(preferredContext dbus.ObjectPath) (OfonoContext, error) {
	contexts, err := modem.GetMMSContexts(preferredContext)
	if err != nil {
		return OfonoContext{}, err
	}
	for _, context := range contexts {
		if context.isActive() {
			return context, nil
		}
		if err := context.toggleActive(true, modem.conn); err == nil {
			return context, nil
		} else {
			log.Println("Failed to activate for", context.ObjectPath, ":", err)
		}
	}
	return OfonoContext{}, errors.New("no context available to activate")
}

//ForceActivateMMSContext retries context activation until it succeeds
//or the cancel channel is closed. There is no retry limit: MMS
//transfer is best effort and nothing is blocked on the result.
func (modem *Modem) ForceActivateMMSContext(preferredContext dbus.ObjectPath, cancel <-chan struct{}) (OfonoContext, error) {
	for {
		context, err := modem.ActivateMMSContext(preferredContext)
		if err == nil {
			return context, nil
		}
		log.Printf("Cannot activate mms context on %s: %s, retrying", modem.Modem, err)
		select {
		case <-cancel:
			return OfonoContext{}, errors.New("context activation cancelled")
		case <-time.After(contextRetryDelay):
		}
	}
}

//WatchMMSContext watches the Active property on the given context and
//re-runs force activation whenever it flips to false while the context
//is still required. The watch stops when cancel is closed.
func (modem *Modem) WatchMMSContext(context OfonoContext, cancel <-chan struct{}) error {
	watch, err := connectToPropertySignal(modem.conn, context.ObjectPath, CONNECTION_CONTEXT_INTERFACE)
	if err != nil {
		return err
	}
	go func() {
		defer watch.Cancel()
		for {
			select {
			case <-cancel:
				return
			case msg, ok := <-watch.C:
				if !ok {
					return
				}
				var property string
				var value dbus.Variant
				if err := msg.Args(&property, &value); err != nil {
					log.Printf("Cannot interpret context property change: %s", err)
					continue
				}
				if property != "Active" {
					continue
				}
				if reflect.ValueOf(value.Value).Bool() {
					continue
				}
				log.Printf("Context %s dropped, reactivating", context.ObjectPath)
				if _, err := modem.ForceActivateMMSContext(context.ObjectPath, cancel); err != nil {
					return
				}
			}
		}
	}()
	return nil
}

//DeactivateMMSContext deactivates the context if it is of type mms
func (modem *Modem) DeactivateMMSContext(context OfonoContext) error {
	if context.isTypeInternet() {
		return nil
	}
	return context.toggleActive(false, modem.conn)
}

func activationErrorNeedsWait(err error) bool {
	if dbusErr, ok := err.(*dbus.Error); ok {
		return dbusErr.Name == ofonoInProgressError || dbusErr.Name == ofonoAttachInProgressError || dbusErr.Name == ofonoNotAttachedError
	}
	return false
}

func (context OfonoContext) toggleActive(state bool, conn *dbus.Connection) error {
	log.Println("Trying to set Active property to", state, "for context on", context.ObjectPath)
	for i := 0; i < 3; i++ {
		err := setContextProperty(conn, context.ObjectPath, "Active", dbus.Variant{state})
		if err != nil {
			log.Printf("Cannot set Active to %t (try %d/3) on %s: %s", state, i+1, context.ObjectPath, err)
			if activationErrorNeedsWait(err) {
				time.Sleep(contextRetryDelay)
			}
		} else {
			return nil
		}
	}
	return errors.New("failed to activate context")
}

func (oContext OfonoContext) isTypeInternet() bool {
	if v, ok := oContext.Properties["Type"]; ok {
		return strings.EqualFold(reflect.ValueOf(v.Value).String(), contextTypeInternet)
	}
	return false
}

// isTypeMMS matches the context type case insensitively, some carrier
// provisioning tools write "MMS".
func (oContext OfonoContext) isTypeMMS() bool {
	if v, ok := oContext.Properties["Type"]; ok {
		return strings.EqualFold(reflect.ValueOf(v.Value).String(), contextTypeMMS)
	}
	return false
}

func (oContext OfonoContext) isActive() bool {
	if v, ok := oContext.Properties["Active"]; ok {
		return reflect.ValueOf(v.Value).Bool()
	}
	return false
}

func (oContext OfonoContext) hasMessageCenter() bool {
	return oContext.messageCenter() != ""
}

func (oContext OfonoContext) messageCenter() string {
	if v, ok := oContext.Properties["MessageCenter"]; ok {
		return reflect.ValueOf(v.Value).String()
	}
	return ""
}

func (oContext OfonoContext) messageProxy() string {
	if v, ok := oContext.Properties["MessageProxy"]; ok {
		return reflect.ValueOf(v.Value).String()
	}
	return ""
}

func (oContext OfonoContext) accessPointName() string {
	if v, ok := oContext.Properties["AccessPointName"]; ok {
		return reflect.ValueOf(v.Value).String()
	}
	return ""
}

func (oContext OfonoContext) GetMessageCenter() (string, error) {
	if oContext.hasMessageCenter() {
		return oContext.messageCenter(), nil
	}
	return "", errors.New("context setting for the Message Center value is empty")
}

func (oContext OfonoContext) GetAPN() string {
	return oContext.accessPointName()
}

func (oContext OfonoContext) GetProxy() (proxyInfo ProxyInfo, err error) {
	proxy := oContext.messageProxy()
	// we need to support empty proxies
	if proxy == "" {
		return proxyInfo, nil
	}
	if strings.HasPrefix(proxy, "http://") {
		proxy = proxy[len("http://"):]
	}
	var portString string
	proxyInfo.Host, portString, err = net.SplitHostPort(proxy)
	if err != nil {
		proxyInfo.Host = proxy
		proxyInfo.Port = 80
		return proxyInfo, nil
	}
	proxyInfo.Port, err = strconv.ParseUint(portString, 0, 64)
	if err != nil {
		return proxyInfo, err
	}
	return proxyInfo, nil
}

//GetMMSContexts returns the contexts that are MMS capable; by convention it has
//been defined that for it to be MMS capable it either has to define a MessageProxy
//and a MessageCenter within the context.
//
//The following rules take place:
//- check current type=internet context for MessageProxy & MessageCenter;
//  if they exist and aren't empty AND the context is active, select it as the
//  context to use for MMS.
//- otherwise search for type=mms (case insensitive), if found, use it
//  and activate
//
//Returns either the type=internet context or the type=mms, if none is found
//an error is returned.
func (modem *Modem) GetMMSContexts(preferredContext dbus.ObjectPath) (mmsContexts []OfonoContext, err error) {
	contexts, err := getOfonoProps(modem.conn, modem.Modem, OFONO_SENDER, CONNECTION_MANAGER_INTERFACE, "GetContexts")
	if err != nil {
		return mmsContexts, err
	}

	for _, context := range contexts {
		if (context.isTypeInternet() && context.isActive() && context.hasMessageCenter()) || context.isTypeMMS() {
			if context.ObjectPath == preferredContext || context.isActive() {
				mmsContexts = append([]OfonoContext{context}, mmsContexts...)
			} else {
				mmsContexts = append(mmsContexts, context)
			}
		}
	}
	if len(mmsContexts) == 0 {
		log.Printf("non matching contexts:\n %+v", contexts)
		return mmsContexts, errors.New("No mms contexts found")
	}
	return mmsContexts, nil
}
