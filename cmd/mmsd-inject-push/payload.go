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

package main

import (
	"bytes"

	"github.com/FuriLabs/mmsd4ofono/mms"
)

const defaultSmil = `<smil><head><layout><root-layout width="320px" height="480px"/>` +
	`<region id="Image" left="0" top="0" width="320px" height="320px" fit="meet"/>` +
	`<region id="Text" left="0" top="320" width="320px" height="160px" fit="meet"/>` +
	`</layout></head><body><par dur="5000ms"><img src="IMG_0001.jpg" region="Image"/>` +
	`<text src="text0.txt" region="Text"/></par></body></smil>`

// a tiny but valid JFIF header, enough for anything probing the
// attachment's magic bytes
var defaultImage = []byte{
	0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 0x4a, 0x46, 0x49, 0x46, 0x00,
	0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0xff, 0xd9,
}

// getMRetrieveConfPayload builds a default two part m-retrieve.conf.
// The m-send.req encoder produces the shared header and multipart
// layout; only the message type byte differs between the two PDUs.
func getMRetrieveConfPayload(args mainFlags) ([]byte, error) {
	smil := &mms.Attachment{
		MediaType:       "application/smil",
		ContentId:       "<smil>",
		ContentLocation: "smil.xml",
		Data:            []byte(defaultSmil),
	}
	img := &mms.Attachment{
		MediaType:       "image/jpeg",
		ContentId:       "<IMG_0001.jpg>",
		ContentLocation: "IMG_0001.jpg",
		Data:            defaultImage,
	}
	text := &mms.Attachment{
		MediaType:       "text/plain",
		ContentId:       "<text0>",
		ContentLocation: "text0.txt",
		Data:            []byte("hello from mmsd-inject-push"),
	}

	sender := args.SenderNotification
	if sender == "" {
		sender = "+543515924906"
	}
	req := mms.NewMSendReq([]string{"+15555555555"}, []*mms.Attachment{img, text, smil}, false)
	req.From = sender + "/TYPE=PLMN"

	var out bytes.Buffer
	if err := mms.NewEncoder(&out).Encode(req); err != nil {
		return nil, err
	}
	payload := out.Bytes()
	payload[1] = mms.TYPE_RETRIEVE_CONF
	return payload, nil
}
