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
	"encoding/hex"
	"log"
	"sync"
	"time"

	"launchpad.net/go-dbus"

	"github.com/FuriLabs/mmsd4ofono/mms"
)

// agentRetryDelay is the pause between RegisterAgent attempts; ofono
// rejects registration while the push interface is still settling.
var agentRetryDelay = 2 * time.Second

var registerAgent = func(conn *dbus.Connection, modem dbus.ObjectPath) error {
	obj := conn.Object(OFONO_SENDER, modem)
	_, err := obj.Call(PUSH_NOTIFICATION_INTERFACE, "RegisterAgent", AGENT_TAG)
	return err
}

/*
 in = "aya{sv}", out = ""
*/
type OfonoPushNotification struct {
	Data []byte
	Info map[string]*dbus.Variant
}

type PushAgent struct {
	conn           *dbus.Connection
	modem          dbus.ObjectPath
	Push           chan *PushPDU
	messageChannel chan *dbus.Message
	Registered     bool
	m              sync.Mutex
}

func NewPushAgent(modem dbus.ObjectPath) *PushAgent {
	return &PushAgent{modem: modem}
}

// Register exports the agent object and registers it with the modem's
// push notification interface, retrying until ofono accepts.
func (agent *PushAgent) Register() (err error) {
	agent.m.Lock()
	defer agent.m.Unlock()
	if agent.conn == nil {
		if agent.conn, err = dbus.Connect(dbus.SystemBus); err != nil {
			return err
		}
	}
	if agent.Registered {
		log.Printf("Agent already registered for %s", agent.modem)
		return nil
	}
	log.Print("Registering agent for ", agent.modem, " on path ", AGENT_TAG, " and name ", agent.conn.UniqueName)
	for {
		if err := registerAgent(agent.conn, agent.modem); err == nil {
			break
		} else {
			log.Printf("Cannot register agent for %s: %s, retrying", agent.modem, err)
		}
		time.Sleep(agentRetryDelay)
	}
	agent.Registered = true
	agent.Push = make(chan *PushPDU)
	agent.messageChannel = make(chan *dbus.Message)
	go agent.watchDBusMethodCalls()
	agent.conn.RegisterObjectPath(AGENT_TAG, agent.messageChannel)
	log.Print("Agent Registered for ", agent.modem, " on path ", AGENT_TAG)
	return nil
}

func (agent *PushAgent) Unregister() error {
	agent.m.Lock()
	defer agent.m.Unlock()
	if !agent.Registered {
		log.Printf("Agent not registered for %s", agent.modem)
		return nil
	}
	log.Print("Unregistering agent on ", agent.modem)
	obj := agent.conn.Object(OFONO_SENDER, agent.modem)
	_, err := obj.Call(PUSH_NOTIFICATION_INTERFACE, "UnregisterAgent", AGENT_TAG)
	if err != nil {
		log.Print("Unregister failed ", err)
		return err
	}
	agent.release()
	agent.modem = dbus.ObjectPath("")
	return nil
}

func (agent *PushAgent) release() {
	agent.Registered = false
	//BUG this seems to not return, but I can't close the channel or panic
	agent.conn.UnregisterObjectPath(AGENT_TAG)
	close(agent.Push)
	agent.Push = nil
	close(agent.messageChannel)
	agent.messageChannel = nil
}

func (agent *PushAgent) watchDBusMethodCalls() {
	var reply *dbus.Message
	for msg := range agent.messageChannel {
		switch {
		case msg.Interface == PUSH_NOTIFICATION_AGENT_INTERFACE && msg.Member == "ReceiveNotification":
			reply = agent.notificationReceived(msg)
		case msg.Interface == PUSH_NOTIFICATION_AGENT_INTERFACE && msg.Member == "Release":
			log.Printf("Push Agent on %s received Release", agent.modem)
			reply = dbus.NewMethodReturnMessage(msg)
			agent.release()
		default:
			log.Print("Received unknown method call on", msg.Interface, msg.Member)
			reply = dbus.NewErrorMessage(msg, "org.freedesktop.DBus.Error.UnknownMethod", "Unknown method")
		}
		if err := agent.conn.Send(reply); err != nil {
			log.Print("Could not send reply: ", err)
		}
	}
}

// infoStrings flattens the string values of the notification info
// dict; non string entries are dropped.
func infoStrings(info map[string]*dbus.Variant) map[string]string {
	out := make(map[string]string, len(info))
	for k, v := range info {
		if v == nil {
			continue
		}
		if s, ok := v.Value.(string); ok {
			out[k] = s
		}
	}
	return out
}

func (agent *PushAgent) notificationReceived(msg *dbus.Message) (reply *dbus.Message) {
	var push OfonoPushNotification
	if err := msg.Args(&(push.Data), &(push.Info)); err != nil {
		log.Print("Error in received ReceiveNotification() method call ", msg)
		return dbus.NewErrorMessage(msg, "org.freedesktop.DBus.Error", "FormatError")
	}
	log.Print("Received ReceiveNotification() method call from ", push.Info["Sender"].Value)
	log.Print("Push data\n", hex.Dump(push.Data))
	dec := NewDecoder(push.Data)
	pdu := new(PushPDU)
	if err := dec.Decode(pdu); err != nil {
		log.Print("Error ", err)
		return dbus.NewErrorMessage(msg, "org.freedesktop.DBus.Error", "DecodeError")
	}
	pdu.Info = infoStrings(push.Info)
	if pdu.ApplicationId == mms.PUSH_APPLICATION_ID && pdu.ContentType == mms.VND_WAP_MMS_MESSAGE {
		agent.Push <- pdu
	} else {
		log.Print("Unhandled push pdu", pdu)
	}
	return dbus.NewMethodReturnMessage(msg)
}
