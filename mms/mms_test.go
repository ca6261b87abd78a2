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
	"strings"

	. "launchpad.net/gocheck"
)

type MMSTestSuite struct{}

var _ = Suite(&MMSTestSuite{})

func (s *MMSTestSuite) TestNewMSendReq(c *C) {
	recipients := []string{"+1 (111) 11", "22-2 22", "+33333"}
	expected := []string{"+111111/TYPE=PLMN", "22222/TYPE=PLMN", "+33333/TYPE=PLMN"}
	smil := &Attachment{MediaType: "application/smil", ContentId: "<smil>", Data: []byte("<smil></smil>")}
	text := &Attachment{MediaType: "text/plain", ContentId: "<text0>", Data: []byte("hola")}
	mSendReq := NewMSendReq(recipients, []*Attachment{text, smil}, false)
	c.Check(mSendReq.To, DeepEquals, expected)
	c.Check(mSendReq.ContentType, Equals, "application/vnd.wap.multipart.related")
	c.Check(mSendReq.ContentTypeStart, Equals, "<smil>")
	c.Check(mSendReq.Type, Equals, byte(TYPE_SEND_REQ))
	c.Check(mSendReq.Version, Equals, byte(MMS_MESSAGE_VERSION_1_1))
	c.Check(mSendReq.DeliveryReport, Equals, byte(DELIVERY_REPORT_NO))
	// the SMIL part leads the body
	c.Assert(mSendReq.Attachments, HasLen, 2)
	c.Check(mSendReq.Attachments[0], Equals, smil)
	c.Check(len(mSendReq.TransactionId), Equals, 8)
}

func (s *MMSTestSuite) TestNewMSendReqWithoutSMIL(c *C) {
	text := &Attachment{MediaType: "text/plain", ContentId: "<text0>", Data: []byte("hola")}
	mSendReq := NewMSendReq([]string{"+11111"}, []*Attachment{text}, true)
	c.Check(mSendReq.ContentType, Equals, "application/vnd.wap.multipart.mixed")
	c.Check(mSendReq.ContentTypeStart, Equals, "")
	c.Check(mSendReq.DeliveryReport, Equals, byte(DELIVERY_REPORT_YES))
}

func (s *MMSTestSuite) TestNormalizeRecipient(c *C) {
	c.Check(NormalizeRecipient("+54 (351) 592-4906"), Equals, "+543515924906/TYPE=PLMN")
	c.Check(NormalizeRecipient("11111"), Equals, "11111/TYPE=PLMN")
	// already tagged addresses pass through
	c.Check(NormalizeRecipient("11111/TYPE=PLMN"), Equals, "11111/TYPE=PLMN")
}

func (s *MMSTestSuite) TestGenUUID(c *C) {
	one := GenUUID()
	other := GenUUID()
	c.Check(one, Not(Equals), other)
	c.Check(strings.Contains(one, "-"), Equals, false)
}

func (s *MMSTestSuite) TestValidate(c *C) {
	text := &Attachment{MediaType: "text/plain", ContentId: "<text0>", Data: []byte("hola")}
	c.Check(NewMSendReq([]string{"+11111"}, []*Attachment{text}, false).Validate(), IsNil)
	c.Check(NewMSendReq(nil, []*Attachment{text}, false).Validate(), NotNil)
	// a message without attachments is still sendable
	c.Check(NewMSendReq([]string{"+11111"}, nil, false).Validate(), IsNil)
}
