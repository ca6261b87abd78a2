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

package mms

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MMS Field names from OMA-WAP-MMS section 7.3
const (
	BCC                           = 0x01
	CC                            = 0x02
	X_MMS_CONTENT_LOCATION        = 0x03
	CONTENT_TYPE                  = 0x04
	DATE                          = 0x05
	X_MMS_DELIVERY_REPORT         = 0x06
	X_MMS_DELIVERY_TIME           = 0x07
	X_MMS_EXPIRY                  = 0x08
	FROM                          = 0x09
	X_MMS_MESSAGE_CLASS           = 0x0A
	MESSAGE_ID                    = 0x0B
	X_MMS_MESSAGE_TYPE            = 0x0C
	X_MMS_MMS_VERSION             = 0x0D
	X_MMS_MESSAGE_SIZE            = 0x0E
	X_MMS_PRIORITY                = 0x0F
	X_MMS_READ_REPORT             = 0x10
	X_MMS_REPORT_ALLOWED          = 0x11
	X_MMS_RESPONSE_STATUS         = 0x12
	X_MMS_RESPONSE_TEXT           = 0x13
	X_MMS_SENDER_VISIBILITY       = 0x14
	X_MMS_STATUS                  = 0x15
	SUBJECT                       = 0x16
	TO                            = 0x17
	X_MMS_TRANSACTION_ID          = 0x18
	X_MMS_RETRIEVE_STATUS         = 0x19
	X_MMS_RETRIEVE_TEXT           = 0x1A
	X_MMS_READ_STATUS             = 0x1B
	X_MMS_REPLY_CHARGING          = 0x1C
	X_MMS_REPLY_CHARGING_DEADLINE = 0x1D
	X_MMS_REPLY_CHARGING_ID       = 0x1E
	X_MMS_REPLY_CHARGING_SIZE     = 0x1F
	X_MMS_PREVIOUSLY_SENT_BY      = 0x20
	X_MMS_PREVIOUSLY_SENT_DATE    = 0x21
)

const (
	TYPE_SEND_REQ         = 0x80
	TYPE_SEND_CONF        = 0x81
	TYPE_NOTIFICATION_IND = 0x82
	TYPE_NOTIFYRESP_IND   = 0x83
	TYPE_RETRIEVE_CONF    = 0x84
	TYPE_ACKNOWLEDGE_IND  = 0x85
	TYPE_DELIVERY_IND     = 0x86
)

const (
	MMS_MESSAGE_VERSION_1_0 = 0x90
	MMS_MESSAGE_VERSION_1_1 = 0x91
	MMS_MESSAGE_VERSION_1_2 = 0x92
	MMS_MESSAGE_VERSION_1_3 = 0x93
)

// Date tokens defined in OMA-WAP-MMS section 7.2.10
const (
	TOKEN_DATE_ABS = 0x80
	TOKEN_DATE_REL = 0x81
)

// From tokens defined in OMA-WAP-MMS section 7.2.11
const (
	TOKEN_ADDRESS_PRESENT = 0x80
	TOKEN_INSERT_ADDRESS  = 0x81
)

// Message classes defined in OMA-WAP-MMS section 7.2.14
const (
	CLASS_PERSONAL      = 0x80
	CLASS_ADVERTISEMENT = 0x81
	CLASS_INFORMATIONAL = 0x82
	CLASS_AUTO          = 0x83
)

// Delivery report and report allowed tokens, OMA-WAP-MMS section 7.2
const (
	DELIVERY_REPORT_YES = 0x80
	DELIVERY_REPORT_NO  = 0x81
	REPORT_ALLOWED_YES  = 0x80
	REPORT_ALLOWED_NO   = 0x81
)

// Expiry tokens from OMA-WAP-MMS section 7.3.20
const (
	ExpiryTokenAbsolute = 0x80
	ExpiryTokenRelative = 0x81
)

const (
	// ContentTypeMMSMessage is the MIME type of an encoded MMS PDU.
	ContentTypeMMSMessage = "application/vnd.wap.mms-message"
	// PlmnSuffix marks a recipient as a telephony address.
	PlmnSuffix = "/TYPE=PLMN"
)

// WAP push routing values identifying an MMS notification.
const (
	PUSH_APPLICATION_ID = 0x04
	VND_WAP_MMS_MESSAGE = ContentTypeMMSMessage
)

// Expiry is the decoded X-Mms-Expiry field, an absolute date or a
// delta in seconds depending on Token.
type Expiry struct {
	Token byte
	Value uint64
}

// MNotificationInd holds a m-notification.ind message defined in
// OMA-WAP-MMS-ENC section 6.2
type MNotificationInd struct {
	MMSReader
	Type, Version, Class, DeliveryReport byte
	ReplyCharging, ReplyChargingDeadline byte
	ReplyChargingId                      string
	TransactionId, ContentLocation       string
	From, Subject                        string
	Expiry                               Expiry
	Size                                 uint64
}

// MRetrieveConf holds a m-retrieve.conf message defined in
// OMA-WAP-MMS-ENC-v1.1 section 6.3
type MRetrieveConf struct {
	MMSReader
	Type, Version, Status, Class, Priority     byte
	ReplyCharging, ReplyChargingDeadline       byte
	ReplyChargingId                            string
	ReadReport, RetrieveStatus, DeliveryReport byte
	TransactionId, MessageId, RetrieveText     string
	From, Cc, Subject                          string
	To                                         []string
	ReportAllowed                              bool
	Date                                       uint64
	Content                                    Attachment
	Attachments                                []Attachment
	Data                                       []byte
}

// MSendReq holds a m-send.req message defined in
// OMA-WAP-MMS-ENC-v1.1 section 6.1.1
type MSendReq struct {
	MMSWriter
	UUID             string `encode:"no"`
	Type             byte
	TransactionId    string
	Version          byte
	From             string
	To               []string
	Subject          string
	Class            byte
	DeliveryReport   byte
	ContentTypeStart string `encode:"no"`
	ContentTypeType  string `encode:"no"`
	ContentType      string
	Attachments      []*Attachment `encode:"no"`
}

// MSendConf holds a m-send.conf message defined in
// OMA-WAP-MMS-ENC-v1.1 section 6.1.2
type MSendConf struct {
	MMSReader
	Type, Version, ResponseStatus byte
	TransactionId, ResponseText   string
	MessageId                     string
}

type MMSReader interface{}
type MMSWriter interface{}

func NewMNotificationInd() *MNotificationInd {
	return &MNotificationInd{Type: TYPE_NOTIFICATION_IND}
}

// NewMSendReq builds an outgoing message for recipients. Recipients
// are normalized to their digits and tagged with the PLMN type suffix.
func NewMSendReq(recipients []string, attachments []*Attachment, deliveryReport bool) *MSendReq {
	for i := range recipients {
		recipients[i] = NormalizeRecipient(recipients[i])
	}
	uuid := GenUUID()
	transactionId := genTransactionId()

	orderedAttachments, contentTypeStart, contentType := settleAttachmentOrder(attachments)
	return &MSendReq{
		Type:             TYPE_SEND_REQ,
		To:               recipients,
		TransactionId:    transactionId,
		Version:          MMS_MESSAGE_VERSION_1_1,
		UUID:             uuid,
		DeliveryReport:   getDeliveryReport(deliveryReport),
		Attachments:      orderedAttachments,
		ContentTypeStart: contentTypeStart,
		ContentTypeType:  "application/smil",
		ContentType:      contentType,
	}
}

func NewMRetrieveConf() *MRetrieveConf {
	return &MRetrieveConf{Type: TYPE_RETRIEVE_CONF}
}

func NewMSendConf() *MSendConf {
	return &MSendConf{Type: TYPE_SEND_CONF}
}

// NormalizeRecipient strips everything but digits (keeping a leading
// "+") and appends the PLMN suffix.
func NormalizeRecipient(addr string) string {
	if strings.HasSuffix(addr, PlmnSuffix) {
		return addr
	}
	var b strings.Builder
	for i, r := range addr {
		if r >= '0' && r <= '9' || (i == 0 && r == '+') {
			b.WriteRune(r)
		}
	}
	return b.String() + PlmnSuffix
}

// settleAttachmentOrder makes sure the SMIL part, when there is one,
// is the first part of the body and selects the matching multipart
// content type.
func settleAttachmentOrder(attachments []*Attachment) ([]*Attachment, string, string) {
	var smil *Attachment
	var parts []*Attachment
	for i := range attachments {
		if strings.HasPrefix(attachments[i].MediaType, "application/smil") {
			smil = attachments[i]
		} else {
			parts = append(parts, attachments[i])
		}
	}
	if smil == nil {
		return parts, "", "application/vnd.wap.multipart.mixed"
	}
	return append([]*Attachment{smil}, parts...), smil.ContentId, "application/vnd.wap.multipart.related"
}

func getDeliveryReport(deliveryReport bool) byte {
	if deliveryReport {
		return DELIVERY_REPORT_YES
	}
	return DELIVERY_REPORT_NO
}

// GenUUID creates a message token usable as a file name and a bus
// path component. Dashes are replaced as they are not valid in a
// D-Bus path element.
func GenUUID() string {
	return strings.Replace(uuid.NewString(), "-", "1", -1)
}

const txnIdAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var txnRand = rand.New(rand.NewSource(time.Now().UnixNano()))

func genTransactionId() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = txnIdAlphabet[txnRand.Intn(len(txnIdAlphabet))]
	}
	return string(b)
}

// Validate checks an m-send.req for the conditions the MMSC would
// reject anyway.
func (pdu *MSendReq) Validate() error {
	if len(pdu.To) == 0 {
		return errors.New("m-send.req has no recipients")
	}
	return nil
}

func (pdu *MSendConf) Status() error {
	s := pdu.ResponseStatus
	// these are case by case in OMA-WAP-MMS-ENC-v1.1 section 7.2.27
	switch s {
	case 128:
		return nil
	case 129, 130, 131, 132:
		return fmt.Errorf("send rejected with transient error: %d", s)
	}
	return fmt.Errorf("send rejected with error: %d", s)
}
