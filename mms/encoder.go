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
	"fmt"
	"io"
	"strings"
)

type MMSEncoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *MMSEncoder {
	return &MMSEncoder{w}
}

func (enc *MMSEncoder) WriteString(s string) error {
	bytes := []byte(s)
	bytes = append(bytes, 0)
	_, err := enc.w.Write(bytes)
	return err
}

// WriteQuotedString writes a Quoted-string according to section
// 8.4.2.1 of WAP-230-WSP-20010705-a
func (enc *MMSEncoder) WriteQuotedString(s string) error {
	if err := enc.WriteByte(34); err != nil {
		return err
	}
	return enc.WriteString(s)
}

func (enc *MMSEncoder) WriteByte(b byte) error {
	bytes := []byte{b}
	if n, err := enc.w.Write(bytes); n != 1 {
		return fmt.Errorf("expected to write 1 byte but wrote %d", n)
	} else if err != nil {
		return err
	}
	return nil
}

// WriteUintVar writes a variable length unsigned integer where the
// most significant bit of each octet signals that more octets follow.
func (enc *MMSEncoder) WriteUintVar(v uint64) error {
	octets := []byte{byte(v & 0x7F)}
	v = v >> 7
	for v > 0 {
		octets = append([]byte{byte(v&0x7F) | 0x80}, octets...)
		v = v >> 7
	}
	_, err := enc.w.Write(octets)
	return err
}

// writeValueLength writes a Value-length according to section 8.4.2.2
// of WAP-230-WSP-20010705-a
func (enc *MMSEncoder) writeValueLength(length uint64) error {
	if length <= SHORT_LENGTH_MAX {
		return enc.WriteByte(byte(length))
	}
	if err := enc.WriteByte(LENGTH_QUOTE); err != nil {
		return err
	}
	return enc.WriteUintVar(length)
}

func (enc *MMSEncoder) setParam(param byte) error {
	return enc.WriteByte(param | 0x80)
}

func (enc *MMSEncoder) writeByteParam(param byte, value byte) error {
	if err := enc.setParam(param); err != nil {
		return err
	}
	return enc.WriteByte(value)
}

func (enc *MMSEncoder) writeStringParam(param byte, value string) error {
	if err := enc.setParam(param); err != nil {
		return err
	}
	return enc.WriteString(value)
}

// Encode writes pdu as a m-send.req binary PDU.
func (enc *MMSEncoder) Encode(pdu *MSendReq) error {
	if err := pdu.Validate(); err != nil {
		return err
	}
	if err := enc.writeByteParam(X_MMS_MESSAGE_TYPE, pdu.Type); err != nil {
		return err
	}
	if err := enc.writeStringParam(X_MMS_TRANSACTION_ID, pdu.TransactionId); err != nil {
		return err
	}
	if err := enc.writeByteParam(X_MMS_MMS_VERSION, pdu.Version); err != nil {
		return err
	}
	if err := enc.writeFrom(pdu.From); err != nil {
		return err
	}
	for _, to := range pdu.To {
		if err := enc.writeStringParam(TO, to); err != nil {
			return err
		}
	}
	if pdu.Subject != "" {
		if err := enc.writeStringParam(SUBJECT, pdu.Subject); err != nil {
			return err
		}
	}
	if pdu.DeliveryReport != 0 {
		if err := enc.writeByteParam(X_MMS_DELIVERY_REPORT, pdu.DeliveryReport); err != nil {
			return err
		}
	}
	if err := enc.writeContentType(pdu); err != nil {
		return err
	}
	return enc.writeParts(pdu.Attachments)
}

// writeFrom writes the From field according to section 7.2.11 of
// OMA-WAP-MMS. An empty address asks the MMSC to insert it.
func (enc *MMSEncoder) writeFrom(from string) error {
	if err := enc.setParam(FROM); err != nil {
		return err
	}
	if from == "" {
		if err := enc.writeValueLength(1); err != nil {
			return err
		}
		return enc.WriteByte(TOKEN_INSERT_ADDRESS)
	}
	// token + address + terminating null
	if err := enc.writeValueLength(uint64(len(from) + 2)); err != nil {
		return err
	}
	if err := enc.WriteByte(TOKEN_ADDRESS_PRESENT); err != nil {
		return err
	}
	return enc.WriteString(from)
}

func (enc *MMSEncoder) writeContentType(pdu *MSendReq) error {
	if err := enc.setParam(CONTENT_TYPE); err != nil {
		return err
	}
	if pdu.ContentTypeStart == "" {
		// no parameters, constrained media is enough
		return enc.WriteString(pdu.ContentType)
	}
	var b bytes.Buffer
	inner := NewEncoder(&b)
	if err := inner.WriteString(pdu.ContentType); err != nil {
		return err
	}
	if err := inner.writeStringParam(WSP_PARAMETER_TYPE_START, pdu.ContentTypeStart); err != nil {
		return err
	}
	if err := inner.writeStringParam(WSP_PARAMETER_TYPE_CONTENT_TYPE, pdu.ContentTypeType); err != nil {
		return err
	}
	if err := enc.writeValueLength(uint64(b.Len())); err != nil {
		return err
	}
	_, err := enc.w.Write(b.Bytes())
	return err
}

func (enc *MMSEncoder) writeParts(parts []*Attachment) error {
	if err := enc.WriteUintVar(uint64(len(parts))); err != nil {
		return err
	}
	for i := range parts {
		var b bytes.Buffer
		header := NewEncoder(&b)
		if err := header.writePartContentType(parts[i]); err != nil {
			return err
		}
		if parts[i].ContentLocation != "" {
			if err := header.writeStringParam(MMS_PART_CONTENT_LOCATION, parts[i].ContentLocation); err != nil {
				return err
			}
		}
		if parts[i].ContentId != "" {
			if err := header.setParam(MMS_PART_CONTENT_ID); err != nil {
				return err
			}
			if err := header.WriteQuotedString(parts[i].ContentId); err != nil {
				return err
			}
		}
		if err := enc.WriteUintVar(uint64(b.Len())); err != nil {
			return err
		}
		if err := enc.WriteUintVar(uint64(len(parts[i].Data))); err != nil {
			return err
		}
		if _, err := enc.w.Write(b.Bytes()); err != nil {
			return err
		}
		if _, err := enc.w.Write(parts[i].Data); err != nil {
			return err
		}
	}
	return nil
}

// writePartContentType writes the part media type, carrying the
// charset as a well known parameter when it maps to one.
func (enc *MMSEncoder) writePartContentType(part *Attachment) error {
	charset := strings.TrimPrefix(part.Charset, "charset=")
	code, ok := charsetCode(charset)
	if !ok {
		return enc.WriteString(part.MediaType)
	}
	var b bytes.Buffer
	inner := NewEncoder(&b)
	if err := inner.WriteString(part.MediaType); err != nil {
		return err
	}
	if err := inner.setParam(WSP_PARAMETER_TYPE_CHARSET); err != nil {
		return err
	}
	if err := inner.WriteByte(byte(code) | 0x80); err != nil {
		return err
	}
	if err := enc.writeValueLength(uint64(b.Len())); err != nil {
		return err
	}
	_, err := enc.w.Write(b.Bytes())
	return err
}

func charsetCode(charset string) (uint64, bool) {
	for code, name := range CHARSETS {
		if name == charset && code <= 0x7F {
			return code, true
		}
	}
	return 0, false
}
