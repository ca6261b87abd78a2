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

type EncodeDecodeTestSuite struct {
	bytes *bytes.Buffer
	enc   *MMSEncoder
	dec   *MMSDecoder
}

var _ = Suite(&EncodeDecodeTestSuite{})

func (s *EncodeDecodeTestSuite) SetUpTest(c *C) {
	s.bytes = new(bytes.Buffer)
	s.enc = NewEncoder(s.bytes)
	// read primitives skip a stub byte first
	c.Assert(s.enc.WriteByte(0), IsNil)
}

func (s *EncodeDecodeTestSuite) TestString(c *C) {
	testStr := "'Hello World!"
	c.Assert(s.enc.WriteString(testStr), IsNil)
	s.dec = NewDecoder(s.bytes.Bytes())

	str, err := s.dec.ReadString(nil, "")
	c.Assert(err, IsNil)
	c.Assert(str, Equals, testStr)
}

func (s *EncodeDecodeTestSuite) TestQuotedString(c *C) {
	testStr := "<smil>"
	c.Assert(s.enc.WriteQuotedString(testStr), IsNil)
	s.dec = NewDecoder(s.bytes.Bytes())

	str, err := s.dec.ReadString(nil, "")
	c.Assert(err, IsNil)
	c.Assert(str, Equals, testStr)
}

func (s *EncodeDecodeTestSuite) TestByte(c *C) {
	testBytes := []byte{0, 0x79, 0x80, 0x81}
	for i := range testBytes {
		c.Assert(s.enc.WriteByte(testBytes[i]), IsNil)
	}
	encoded := s.bytes.Bytes()
	s.dec = NewDecoder(encoded)
	for i := range testBytes {
		b, err := s.dec.ReadByte(nil, "")
		c.Assert(err, IsNil)
		c.Assert(b, Equals, testBytes[i], Commentf("From testBytes[%d] and encoded bytes: %#x", i, encoded))
	}
}

func (s *EncodeDecodeTestSuite) TestUintVar(c *C) {
	testInts := []uint64{0, 1, 127, 128, 129, 255, 16383, 16384, 3000000}
	for i := range testInts {
		c.Assert(s.enc.WriteUintVar(testInts[i]), IsNil)
	}
	encoded := s.bytes.Bytes()
	s.dec = NewDecoder(encoded)
	for i := range testInts {
		v, err := s.dec.ReadUintVar(nil, "")
		c.Assert(err, IsNil)
		c.Check(v, Equals, testInts[i], Commentf("%d != %d with encoded bytes: %#x", v, testInts[i], encoded))
	}
}

// mirror of the m-send.req fields the decoder can fill back in
type sendReqEcho struct {
	Type           byte
	Version        byte
	TransactionId  string
	Subject        string
	To             []string
	DeliveryReport byte
	Content        Attachment
	Attachments    []Attachment
	Data           []byte
}

func (s *EncodeDecodeTestSuite) TestMSendReqRoundTrip(c *C) {
	smilBody := `<smil><head></head><body><par><img src="IMG_0001.jpg"/></par></body></smil>`
	smil := &Attachment{
		MediaType:       "application/smil",
		ContentId:       "<smil>",
		ContentLocation: "smil.xml",
		Data:            []byte(smilBody),
	}
	img := &Attachment{
		MediaType:       "image/jpeg",
		ContentId:       "<IMG_0001.jpg>",
		ContentLocation: "IMG_0001.jpg",
		Data:            []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10},
	}
	text := &Attachment{
		MediaType:       "text/plain",
		Charset:         "utf-8",
		ContentId:       "<text0>",
		ContentLocation: "text0.txt",
		Data:            []byte("hola mundo"),
	}
	req := NewMSendReq([]string{"+543515924906"}, []*Attachment{img, text, smil}, true)
	req.Subject = "Saludos"

	var out bytes.Buffer
	c.Assert(NewEncoder(&out).Encode(req), IsNil)

	echo := &sendReqEcho{Type: TYPE_SEND_REQ}
	c.Assert(NewDecoder(out.Bytes()).Decode(echo), IsNil)

	c.Check(echo.TransactionId, Equals, req.TransactionId)
	c.Check(echo.Version, Equals, byte(MMS_MESSAGE_VERSION_1_1))
	c.Check(echo.To, DeepEquals, []string{"+543515924906/TYPE=PLMN"})
	c.Check(echo.Subject, Equals, "Saludos")
	c.Check(echo.DeliveryReport, Equals, byte(DELIVERY_REPORT_YES))
	c.Check(echo.Content.MediaType, Equals, "application/vnd.wap.multipart.related")
	c.Check(echo.Content.Start, Equals, "<smil>")
	c.Check(echo.Content.Type, Equals, "application/smil")

	c.Assert(echo.Attachments, HasLen, 3)
	c.Check(echo.Attachments[0].MediaType, Equals, "application/smil")
	c.Check(echo.Attachments[0].ContentId, Equals, "<smil>")
	c.Check(echo.Attachments[0].Data, DeepEquals, []byte(smilBody))
	c.Check(echo.Attachments[1].MediaType, Equals, "image/jpeg")
	c.Check(echo.Attachments[1].ContentLocation, Equals, "IMG_0001.jpg")
	c.Check(echo.Attachments[1].Data, DeepEquals, img.Data)
	c.Check(echo.Attachments[2].MediaType, Equals, "text/plain;charset=utf-8")
	c.Check(echo.Attachments[2].Data, DeepEquals, []byte("hola mundo"))
}

func (s *EncodeDecodeTestSuite) TestMSendReqRoundTripNoSMIL(c *C) {
	text := &Attachment{
		MediaType:       "text/plain",
		ContentId:       "<text0>",
		ContentLocation: "text0.txt",
		Data:            []byte("sin carta"),
	}
	req := NewMSendReq([]string{"11111"}, []*Attachment{text}, false)

	var out bytes.Buffer
	c.Assert(NewEncoder(&out).Encode(req), IsNil)

	echo := &sendReqEcho{Type: TYPE_SEND_REQ}
	c.Assert(NewDecoder(out.Bytes()).Decode(echo), IsNil)

	c.Check(echo.Content.MediaType, Equals, "application/vnd.wap.multipart.mixed")
	c.Assert(echo.Attachments, HasLen, 1)
	c.Check(echo.Attachments[0].ContentLocation, Equals, "text0.txt")
	c.Check(echo.Attachments[0].Data, DeepEquals, []byte("sin carta"))
}
