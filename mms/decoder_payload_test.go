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
	"bytes"

	. "launchpad.net/gocheck"
)

type PayloadDecoderTestSuite struct{}

var _ = Suite(&PayloadDecoderTestSuite{})

// a m-notification.ind as a carrier would push it
var mNotificationIndPayload = bytes.Join([][]byte{
	// X-Mms-Message-Type m-notification.ind
	{0x80 | X_MMS_MESSAGE_TYPE, TYPE_NOTIFICATION_IND},
	// X-Mms-Transaction-Id "m04BKksim05"
	{0x80 | X_MMS_TRANSACTION_ID},
	[]byte("m04BKksim05\x00"),
	// X-Mms-MMS-Version 1.0
	{0x80 | X_MMS_MMS_VERSION, MMS_MESSAGE_VERSION_1_0},
	// From, address present, "+543515924906/TYPE=PLMN"
	{0x80 | FROM, 0x19, TOKEN_ADDRESS_PRESENT},
	[]byte("+543515924906/TYPE=PLMN\x00"),
	// X-Mms-Message-Class personal
	{0x80 | X_MMS_MESSAGE_CLASS, CLASS_PERSONAL},
	// X-Mms-Message-Size 0x7400
	{0x80 | X_MMS_MESSAGE_SIZE, 0x02, 0x74, 0x00},
	// X-Mms-Expiry, relative, 3 days
	{0x80 | X_MMS_EXPIRY, 0x05, ExpiryTokenRelative, 0x03, 0x03, 0xf4, 0x80},
	// X-Mms-Content-Location
	{0x80 | X_MMS_CONTENT_LOCATION},
	[]byte("http://localhost:9191/mms\x00"),
}, nil)

func (s *PayloadDecoderTestSuite) TestDecodeMNotificationInd(c *C) {
	mni := NewMNotificationInd()
	dec := NewDecoder(mNotificationIndPayload)
	c.Assert(dec.Decode(mni), IsNil)
	c.Check(mni.TransactionId, Equals, "m04BKksim05")
	c.Check(mni.From, Equals, "+543515924906/TYPE=PLMN")
	c.Check(mni.Class, Equals, byte(CLASS_PERSONAL))
	c.Check(mni.Size, Equals, uint64(0x7400))
	c.Check(mni.Expiry, Equals, Expiry{ExpiryTokenRelative, 3 * 24 * 3600})
	c.Check(mni.ContentLocation, Equals, "http://localhost:9191/mms")
}

// a m-send.conf acknowledging a send
var mSendConfPayload = bytes.Join([][]byte{
	{0x80 | X_MMS_MESSAGE_TYPE, TYPE_SEND_CONF},
	{0x80 | X_MMS_TRANSACTION_ID},
	[]byte("ad6babe262\x00"),
	{0x80 | X_MMS_MMS_VERSION, MMS_MESSAGE_VERSION_1_1},
	{0x80 | X_MMS_RESPONSE_STATUS, 0x80},
	{0x80 | MESSAGE_ID},
	[]byte("SE-214077-32661\x00"),
}, nil)

func (s *PayloadDecoderTestSuite) TestDecodeMSendConf(c *C) {
	mSendConf := NewMSendConf()
	dec := NewDecoder(mSendConfPayload)
	c.Assert(dec.Decode(mSendConf), IsNil)
	c.Check(mSendConf.TransactionId, Equals, "ad6babe262")
	c.Check(mSendConf.MessageId, Equals, "SE-214077-32661")
	c.Check(mSendConf.Status(), IsNil)
}

func (s *PayloadDecoderTestSuite) TestDecodeMSendConfRejected(c *C) {
	payload := bytes.Join([][]byte{
		{0x80 | X_MMS_MESSAGE_TYPE, TYPE_SEND_CONF},
		{0x80 | X_MMS_TRANSACTION_ID},
		[]byte("ad6babe262\x00"),
		{0x80 | X_MMS_MMS_VERSION, MMS_MESSAGE_VERSION_1_1},
		// service denied
		{0x80 | X_MMS_RESPONSE_STATUS, 0x81},
	}, nil)
	mSendConf := NewMSendConf()
	dec := NewDecoder(payload)
	c.Assert(dec.Decode(mSendConf), IsNil)
	c.Check(mSendConf.Status(), NotNil)
}

// carriers occasionally answer a send with an error page instead of a PDU
func (s *PayloadDecoderTestSuite) TestDecodeInvalidMSendConf(c *C) {
	inputBytes := []byte(`<html><head><title>719</title></head><body><h3 align="center">Disculpe, ha ocurrido un error</h3></body></html>`)

	mSendConf := NewMSendConf()
	dec := NewDecoder(inputBytes)
	err := dec.Decode(mSendConf)
	c.Check(err, NotNil)
	c.Check(mSendConf.ResponseStatus, Equals, byte(0x0))
	c.Check(mSendConf.TransactionId, Equals, "")
}

func (s *PayloadDecoderTestSuite) TestDecodeNotificationMissingContentLocation(c *C) {
	payload := bytes.Join([][]byte{
		{0x80 | X_MMS_MESSAGE_TYPE, TYPE_NOTIFICATION_IND},
		{0x80 | X_MMS_TRANSACTION_ID},
		[]byte("m04BKksim05\x00"),
		{0x80 | X_MMS_MMS_VERSION, MMS_MESSAGE_VERSION_1_0},
	}, nil)
	mni := NewMNotificationInd()
	dec := NewDecoder(payload)
	c.Assert(dec.Decode(mni), IsNil)
	c.Check(mni.ContentLocation, Equals, "")
}
