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

const (
	MMS_DBUS_NAME                = "org.ofono.mms"
	MMS_DBUS_PATH                = "/org/ofono/mms"
	MMS_MESSAGE_DBUS_IFACE       = "org.ofono.mms.Message"
	MMS_SERVICE_DBUS_IFACE       = "org.ofono.mms.Service"
	MMS_MANAGER_DBUS_IFACE       = "org.ofono.mms.Manager"
	MMS_MODEM_MANAGER_DBUS_IFACE = "org.ofono.mms.ModemManager"
)

const (
	identityProperty           = "Identity"
	modemObjectPathProperty    = "ModemObjectPath"
	preferredContextProperty   = "PreferredContext"
	useDeliveryReportsProperty = "UseDeliveryReports"
	autoCreateSMILProperty     = "AutoCreateSMIL"
	totalMaxAttachmentSizeProp = "TotalMaxAttachmentSize"
	maxAttachmentsProperty     = "MaxAttachments"
	notificationIndsProperty   = "NotificationInds"
)

const (
	carrierMMSCProperty          = "CarrierMMSC"
	mmsAPNProperty               = "MMS_APN"
	carrierMMSProxyProperty      = "CarrierMMSProxy"
	defaultModemNumberProperty   = "DefaultModemNumber"
	modemNumberProperty          = "ModemNumber"
	autoProcessOnConnectionProp  = "AutoProcessOnConnection"
	autoProcessSMSWAPProperty    = "AutoProcessSMSWAP"
)

const (
	messageAddedSignal        = "MessageAdded"
	messageRemovedSignal      = "MessageRemoved"
	messageSendErrorSignal    = "MessageSendError"
	messageReceiveErrorSignal = "MessageReceiveError"
	serviceAddedSignal        = "ServiceAdded"
	serviceRemovedSignal      = "ServiceRemoved"
	propertyChangedSignal     = "PropertyChanged"
	settingsChangedSignal     = "SettingsChanged"
	bearerHandlerErrorSignal  = "BearerHandlerError"
)

const (
	statusProperty = "Status"
)

const (
	RECEIVED = "received"
	DRAFT    = "draft"
	SENT     = "sent"
)

const (
	PLMN = "/TYPE=PLMN"
)

const (
	totalMaxAttachmentSizeDefault = uint32(1100000)
	maxAttachmentsDefault         = uint32(25)
	notificationIndsDefault       = uint32(0)
)
