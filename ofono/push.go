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
	"fmt"
)

type PDU byte

// PushPDU is the decoded WSP push envelope; Data carries the
// application payload, for MMS the m-notification.ind bytes. Info
// holds the string values of the ReceiveNotification info dict
// (Sender, SentTime, LocalSentTime), filled in by the push agent.
type PushPDU struct {
	HeaderLength                             uint
	ContentLength                            int
	ApplicationId, EncodingVersion, PushFlag byte
	ContentType                              string
	Data                                     []byte
	Info                                     map[string]string
}

type PushPDUDecoder struct {
	data   []byte
	offset int
}

func NewDecoder(data []byte) *PushPDUDecoder {
	decoder := new(PushPDUDecoder)
	decoder.data = data
	return decoder
}

// The HeadersLen field specifies the length of the ContentType and Headers fields combined.
// The ContentType field contains the content type of the data. It conforms to the Content-Type value encoding specified
// in section 8.4.2.24, "Content type field".
// The Headers field contains the push headers.
// The Data field contains the data pushed from the server. The length of the Data field is determined by the SDU size as
// provided to and reported from the underlying transport. The Data field starts immediately after the Headers field and
// ends at the end of the SDU.
func (dec *PushPDUDecoder) Decode(pdu *PushPDU) (err error) {
	if len(dec.data) < 3 {
		return fmt.Errorf("push pdu too short: %d bytes", len(dec.data))
	}
	if PDU(dec.data[1]) != PUSH {
		return fmt.Errorf("%x != %x is not a push PDU", PDU(dec.data[1]), PUSH)
	}
	// Move offset +tid +type = +2
	dec.offset = 2
	if pdu.HeaderLength, err = dec.decodeUintVar(); err != nil {
		return err
	}
	if pdu.ContentType, err = dec.decodeContentType(); err != nil {
		return err
	}
	if err = dec.decodeHeaders(pdu, int(pdu.HeaderLength)-(len(pdu.ContentType)+1)); err != nil {
		return err
	}
	if int(pdu.HeaderLength+3) > len(dec.data) {
		return fmt.Errorf("header length %d overruns %d byte pdu", pdu.HeaderLength, len(dec.data))
	}
	pdu.Data = dec.data[(pdu.HeaderLength + 3):]
	return nil
}

// A UintVar is a variable length uint of up to 5 octets long where
// more octets available are indicated with the most significant bit
// set to 1
func (dec *PushPDUDecoder) decodeUintVar() (uint, error) {
	var val uint
	var n int

	for n = dec.offset; n < (dec.offset+5) && n < len(dec.data); n++ {
		val = (val << 7) | uint(dec.data[n]&0x7f)
		if dec.data[n]&0x80 == 0 {
			break
		}
	}
	if n >= len(dec.data) || dec.data[n]&0x80 != 0 {
		return 0, fmt.Errorf("could not decode uintvar from %x", dec.data[dec.offset:])
	}
	dec.offset = n + 1
	return val, nil
}

func (dec *PushPDUDecoder) decodeContentType() (string, error) {
	content, err := dec.decodeField()
	if err != nil {
		return "", err
	}
	return content, nil
}

func (dec *PushPDUDecoder) decodeHeaders(pdu *PushPDU, hdrLengthRemain int) error {
	var n int
	for n = dec.offset; n < (hdrLengthRemain+dec.offset) && n+1 < len(dec.data); {
		param := dec.data[n] & 0x7F
		switch param {
		case X_WAP_APPLICATION_ID:
			n++
			pdu.ApplicationId = dec.data[n] & 0x7F
			n++
		case PUSH_FLAG:
			n++
			pdu.PushFlag = dec.data[n] & 0x7F
			n++
		case ENCODING_VERSION:
			n++
			pdu.EncodingVersion = dec.data[n] & 0x7F
			n++
		case CONTENT_LENGTH:
			n++
			pdu.ContentLength = int(dec.data[n] & 0x7F)
			n++
		default:
			return fmt.Errorf("unhandled push header %#x at offset %d", param, n)
		}
	}
	dec.offset = n
	return nil
}

// decodeField decodes a header field value per WAP-230-WSP section
// 8.4.1.2:
// 0-30 octet is followed by the indicated number of octets
// 31 octet is followed by a uintvar
// 32-127 value is a nul terminated string
// 128-255 encoded 7bit value; no more data follows this octet
//
// Only the text form is needed here; the push content type ofono hands
// us is always a string.
func (dec *PushPDUDecoder) decodeField() (string, error) {
	c := int(dec.data[dec.offset])
	if c < 32 || c > 127 {
		return "", fmt.Errorf("unhandled field type %#x", c)
	}
	for n, v := range dec.data[dec.offset:] {
		if v != 0 {
			continue
		}
		text := string(dec.data[dec.offset : dec.offset+n])
		dec.offset = dec.offset + n + 1
		return text, nil
	}
	return "", fmt.Errorf("unterminated text field at offset %d", dec.offset)
}
