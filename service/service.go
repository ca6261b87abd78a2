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
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"reflect"
	"strconv"

	"github.com/FuriLabs/mmsd4ofono/storage"
	"launchpad.net/go-dbus"
)

type MMSService struct {
	payload         Payload
	Properties      map[string]dbus.Variant
	conn            *dbus.Connection
	msgChan         chan *dbus.Message
	messageHandlers map[dbus.ObjectPath]*MessageInterface
	msgDeleteChan   chan dbus.ObjectPath
	identity        string
	outMessage      chan *OutgoingMessage
}

func NewMMSService(conn *dbus.Connection, modemObjPath dbus.ObjectPath, identity string, outgoingChannel chan *OutgoingMessage, useDeliveryReports bool) *MMSService {
	properties := make(map[string]dbus.Variant)
	properties[identityProperty] = dbus.Variant{identity}
	serviceProperties := make(map[string]dbus.Variant)
	serviceProperties[useDeliveryReportsProperty] = dbus.Variant{useDeliveryReports}
	serviceProperties[autoCreateSMILProperty] = dbus.Variant{true}
	serviceProperties[totalMaxAttachmentSizeProp] = dbus.Variant{totalMaxAttachmentSizeDefault}
	serviceProperties[maxAttachmentsProperty] = dbus.Variant{maxAttachmentsDefault}
	serviceProperties[notificationIndsProperty] = dbus.Variant{notificationIndsDefault}
	serviceProperties[modemObjectPathProperty] = dbus.Variant{modemObjPath}
	loadPersistedSettings(serviceProperties)
	payload := Payload{
		Path:       dbus.ObjectPath(MMS_DBUS_PATH + "/" + identity),
		Properties: properties,
	}
	service := MMSService{
		payload:         payload,
		Properties:      serviceProperties,
		conn:            conn,
		msgChan:         make(chan *dbus.Message),
		msgDeleteChan:   make(chan dbus.ObjectPath),
		messageHandlers: make(map[dbus.ObjectPath]*MessageInterface),
		outMessage:      outgoingChannel,
		identity:        identity,
	}
	go service.watchDBusMethodCalls()
	go service.watchMessageDeleteCalls()
	conn.RegisterObjectPath(payload.Path, service.msgChan)
	return &service
}

// loadPersistedSettings overrides the built-in defaults with whatever a
// previous run stored in the settings file.
func loadPersistedSettings(properties map[string]dbus.Variant) {
	for k, v := range storage.ReadSection(storage.SettingsSection) {
		switch k {
		case useDeliveryReportsProperty, autoCreateSMILProperty:
			if b, err := strconv.ParseBool(v); err == nil {
				properties[k] = dbus.Variant{b}
			}
		case totalMaxAttachmentSizeProp, maxAttachmentsProperty, notificationIndsProperty:
			if n, err := strconv.ParseUint(v, 10, 32); err == nil {
				properties[k] = dbus.Variant{uint32(n)}
			}
		}
	}
}

func (service *MMSService) watchMessageDeleteCalls() {
	for msgObjectPath := range service.msgDeleteChan {
		if err := service.MessageRemoved(msgObjectPath); err != nil {
			log.Print("Failed to delete ", msgObjectPath, ": ", err)
		}
	}
}

func (service *MMSService) watchDBusMethodCalls() {
	for msg := range service.msgChan {
		var reply *dbus.Message
		if msg.Interface != MMS_SERVICE_DBUS_IFACE {
			log.Println("Received unknown interface call on", msg.Interface, msg.Member)
			reply = dbus.NewErrorMessage(
				msg,
				"org.freedesktop.DBus.Error.UnknownInterface",
				fmt.Sprintf("No such interface '%s' at object path '%s'", msg.Interface, msg.Path),
			)
			if err := service.conn.Send(reply); err != nil {
				log.Println("Could not send reply:", err)
			}
			continue
		}
		switch msg.Member {
		case "GetMessages":
			reply = dbus.NewMethodReturnMessage(msg)
			payloads := make([]Payload, 0, len(service.messageHandlers))
			for path := range service.messageHandlers {
				payloads = append(payloads, *service.messageHandlers[path].GetPayload())
			}
			if err := reply.AppendArgs(payloads); err != nil {
				log.Print("Cannot marshal message payloads")
				reply = dbus.NewErrorMessage(msg, "Error.InvalidArguments", "Cannot marshal messages")
			}
			if err := service.conn.Send(reply); err != nil {
				log.Println("Could not send reply:", err)
			}
		case "GetProperties":
			reply = dbus.NewMethodReturnMessage(msg)
			if pc, err := service.GetPreferredContext(); err == nil {
				service.Properties[preferredContextProperty] = dbus.Variant{pc}
			} else {
				// Using "/" as an invalid 'path' even though it could be considered 'incorrect'
				service.Properties[preferredContextProperty] = dbus.Variant{dbus.ObjectPath("/")}
			}
			if err := reply.AppendArgs(service.Properties); err != nil {
				log.Print("Cannot marshal service properties")
				reply = dbus.NewErrorMessage(msg, "Error.InvalidArguments", "Cannot marshal properties")
			}
			if err := service.conn.Send(reply); err != nil {
				log.Println("Could not send reply:", err)
			}
		case "SetProperty":
			if err := service.setProperty(msg); err != nil {
				log.Println("Property set failed:", err)
				reply = dbus.NewErrorMessage(msg, "Error.InvalidArguments", err.Error())
			} else {
				reply = dbus.NewMethodReturnMessage(msg)
			}
			if err := service.conn.Send(reply); err != nil {
				log.Println("Could not send reply:", err)
			}
		case "SendMessage":
			outMessage, err := parseOutgoingMessage(msg)
			if err != nil {
				log.Print("Cannot parse SendMessage arguments: ", err)
				reply = dbus.NewErrorMessage(msg, "Error.InvalidArguments", "Cannot parse New Message")
				if err := service.conn.Send(reply); err != nil {
					log.Println("Could not send reply:", err)
				}
			} else {
				outMessage.Reply = dbus.NewMethodReturnMessage(msg)
				service.outMessage <- outMessage
			}
		default:
			log.Println("Received unknown method call on", msg.Interface, msg.Member)
			reply = dbus.NewErrorMessage(
				msg,
				"org.freedesktop.DBus.Error.UnknownMethod",
				fmt.Sprintf("No such method '%s' at object path '%s'", msg.Member, msg.Path),
			)
			if err := service.conn.Send(reply); err != nil {
				log.Println("Could not send reply:", err)
			}
		}
	}
}

// parseOutgoingMessage decodes a SendMessage call; the signature is
// (as recipients, v smil, a(sss) attachments), the smil variant holds
// a string when one is supplied.
func parseOutgoingMessage(msg *dbus.Message) (*OutgoingMessage, error) {
	outMessage := &OutgoingMessage{}
	var smil dbus.Variant
	if err := msg.Args(&outMessage.Recipients, &smil, &outMessage.Attachments); err != nil {
		return nil, err
	}
	if s, ok := smil.Value.(string); ok {
		outMessage.Smil = s
	}
	return outMessage, nil
}

func getUUIDFromObjectPath(objectPath dbus.ObjectPath) (string, error) {
	str := string(objectPath)
	defaultError := fmt.Errorf("%s is not a proper object path for a Message", str)
	if str == "" {
		return "", defaultError
	}
	uuid := filepath.Base(str)
	if uuid == "" || uuid == ".." || uuid == "." || uuid == "/" {
		return "", defaultError
	}
	return uuid, nil
}

func (service *MMSService) SetPreferredContext(context dbus.ObjectPath) error {
	// make set a noop if we are setting the same thing
	if pc, err := service.GetPreferredContext(); err == nil && context == pc {
		return nil
	}

	if err := storage.SetPreferredContext(service.identity, context); err != nil {
		return err
	}
	signal := dbus.NewSignalMessage(service.payload.Path, MMS_SERVICE_DBUS_IFACE, propertyChangedSignal)
	if err := signal.AppendArgs(preferredContextProperty, dbus.Variant{context}); err != nil {
		return err
	}
	return service.conn.Send(signal)
}

func (service *MMSService) GetPreferredContext() (dbus.ObjectPath, error) {
	return storage.GetPreferredContext(service.identity)
}

// UseDeliveryReports reports whether outgoing messages should request a
// delivery report.
func (service *MMSService) UseDeliveryReports() bool {
	if v, ok := service.Properties[useDeliveryReportsProperty]; ok {
		if b, ok := v.Value.(bool); ok {
			return b
		}
	}
	return false
}

// AutoCreateSMIL reports whether a SMIL document should be generated for
// outgoing messages that lack one.
func (service *MMSService) AutoCreateSMIL() bool {
	if v, ok := service.Properties[autoCreateSMILProperty]; ok {
		if b, ok := v.Value.(bool); ok {
			return b
		}
	}
	return false
}

func (service *MMSService) setProperty(msg *dbus.Message) error {
	var propertyName string
	var propertyValue dbus.Variant
	if err := msg.Args(&propertyName, &propertyValue); err != nil {
		return err
	}

	switch propertyName {
	case preferredContextProperty:
		preferredContextObjectPath := dbus.ObjectPath(reflect.ValueOf(propertyValue.Value).String())
		service.Properties[preferredContextProperty] = dbus.Variant{preferredContextObjectPath}
		return service.SetPreferredContext(preferredContextObjectPath)
	case useDeliveryReportsProperty, autoCreateSMILProperty:
		value := reflect.ValueOf(propertyValue.Value)
		if value.Kind() != reflect.Bool {
			return fmt.Errorf("property %s expects a boolean value", propertyName)
		}
		service.Properties[propertyName] = dbus.Variant{value.Bool()}
		return service.persistSettings()
	default:
		return errors.New("property cannot be set")
	}
}

// persistSettings rewrites the Settings section of the settings file from
// the current service properties.
func (service *MMSService) persistSettings() error {
	values := make(map[string]string)
	for _, name := range []string{useDeliveryReportsProperty, autoCreateSMILProperty} {
		if v, ok := service.Properties[name]; ok {
			if b, ok := v.Value.(bool); ok {
				values[name] = strconv.FormatBool(b)
			}
		}
	}
	return storage.ReplaceSection(storage.SettingsSection, values)
}

// MessageRemoved closes the message handler, removes the message from
// storage and emits the MessageRemoved signal, in this order.
func (service *MMSService) MessageRemoved(objectPath dbus.ObjectPath) error {
	if _, ok := service.messageHandlers[objectPath]; !ok {
		return fmt.Errorf("message not handled")
	}

	service.messageHandlers[objectPath].Close()
	delete(service.messageHandlers, objectPath)

	uuid, err := getUUIDFromObjectPath(objectPath)
	if err != nil {
		return err
	}
	if err := storage.Destroy(uuid); err != nil {
		return err
	}

	return service.SignalMessageRemoved(objectPath)
}

func (service *MMSService) SignalMessageRemoved(objectPath dbus.ObjectPath) error {
	signal := dbus.NewSignalMessage(service.payload.Path, MMS_SERVICE_DBUS_IFACE, messageRemovedSignal)
	if err := signal.AppendArgs(objectPath); err != nil {
		return err
	}
	return service.conn.Send(signal)
}

// SignalMessageSendError is emitted when an outgoing message cannot be
// encoded at all; transmission failures are retried instead.
func (service *MMSService) SignalMessageSendError(objectPath dbus.ObjectPath, reason string) error {
	signal := dbus.NewSignalMessage(service.payload.Path, MMS_SERVICE_DBUS_IFACE, messageSendErrorSignal)
	if err := signal.AppendArgs(objectPath, reason); err != nil {
		return err
	}
	return service.conn.Send(signal)
}

// SignalMessageReceiveError is emitted when a retrieved message cannot be
// decoded; fetch failures are queued and retried instead.
func (service *MMSService) SignalMessageReceiveError(reason string) error {
	signal := dbus.NewSignalMessage(service.payload.Path, MMS_SERVICE_DBUS_IFACE, messageReceiveErrorSignal)
	if err := signal.AppendArgs(reason); err != nil {
		return err
	}
	return service.conn.Send(signal)
}

//IncomingMessageAdded exports a received message on the bus and emits
//MessageAdded with its payload.
func (service *MMSService) IncomingMessageAdded(im *InboundMessage) error {
	if service == nil {
		return fmt.Errorf("nil MMSService")
	}
	payload := Payload{Path: service.GenMessagePath(im.UUID), Properties: im.properties()}
	service.messageHandlers[payload.Path] = NewMessageInterface(service.conn, payload.Path, payload.Properties, service.msgDeleteChan)
	return service.MessageAdded(&payload)
}

//MessageAdded emits a MessageAdded with the path to the added message which
//is taken as a parameter
func (service *MMSService) MessageAdded(msgPayload *Payload) error {
	signal := dbus.NewSignalMessage(service.payload.Path, MMS_SERVICE_DBUS_IFACE, messageAddedSignal)
	if err := signal.AppendArgs(msgPayload.Path, msgPayload.Properties); err != nil {
		return err
	}
	return service.conn.Send(signal)
}

func (service *MMSService) isService(identity string) bool {
	path := dbus.ObjectPath(MMS_DBUS_PATH + "/" + identity)
	return path == service.payload.Path
}

func (service *MMSService) Close() {
	service.conn.UnregisterObjectPath(service.payload.Path)
	close(service.msgChan)
	close(service.msgDeleteChan)
}

func (service *MMSService) MessageStatusChanged(uuid, status string) error {
	msgObjectPath := service.GenMessagePath(uuid)
	if msgInterface, ok := service.messageHandlers[msgObjectPath]; ok {
		return msgInterface.StatusChanged(status)
	}
	return fmt.Errorf("no message interface handler for object path %s", msgObjectPath)
}

// ReplySendMessage replies to a pending SendMessage call with the object
// path of the new draft, exports the message and emits MessageAdded.
func (service *MMSService) ReplySendMessage(reply *dbus.Message, uuid string, properties map[string]dbus.Variant) (dbus.ObjectPath, error) {
	msgObjectPath := service.GenMessagePath(uuid)
	reply.AppendArgs(msgObjectPath)
	if err := service.conn.Send(reply); err != nil {
		return "", err
	}
	if properties == nil {
		properties = make(map[string]dbus.Variant)
	}
	properties[statusProperty] = dbus.Variant{DRAFT}
	msg := NewMessageInterface(service.conn, msgObjectPath, properties, service.msgDeleteChan)
	service.messageHandlers[msgObjectPath] = msg
	if err := service.MessageAdded(msg.GetPayload()); err != nil {
		return "", err
	}
	return msgObjectPath, nil
}

func (service *MMSService) GenMessagePath(uuid string) dbus.ObjectPath {
	return dbus.ObjectPath(MMS_DBUS_PATH + "/" + service.identity + "/" + uuid)
}

// HasMessage reports whether a message with the given uuid is exported.
func (service *MMSService) HasMessage(uuid string) bool {
	_, ok := service.messageHandlers[service.GenMessagePath(uuid)]
	return ok
}
