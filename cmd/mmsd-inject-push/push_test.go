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
	"reflect"
	"strings"
	"testing"

	"github.com/FuriLabs/mmsd4ofono/mms"
)

func TestGetMNotificationIndPayload(t *testing.T) {
	testCases := []struct {
		args              mainFlags
		differFromDefault bool
	}{
		{},
		{mainFlags{Sender: "+12345"}, false},
		{mainFlags{Sender: "+543515924906"}, false},
		{mainFlags{SenderNotification: "+12345"}, true},
		{mainFlags{SenderNotification: "+543515924906"}, false},
		{mainFlags{TransactionId: "12345abcde"}, true},
		{mainFlags{TransactionId: ""}, false},
	}

	for _, tc := range testCases {
		pl := getMNotificationIndPayload(tc.args)
		if !tc.differFromDefault != reflect.DeepEqual(pl, mNotificationInd) {
			differ := ""
			if !tc.differFromDefault {
				differ = "not "
			}
			t.Errorf("Push payload for args %#v should %sdiffer from default payload", tc.args, differ)
			continue
		}

		dec := mms.NewDecoder(pl)
		mni := mms.NewMNotificationInd()
		if err := dec.Decode(mni); err != nil {
			t.Errorf("Error decoding payload for args %#v: %v", tc.args, err)
			continue
		}

		wantFrom := tc.args.SenderNotification + "/TYPE=PLMN"
		if tc.args.SenderNotification == "" {
			wantFrom = "+543515924906/TYPE=PLMN"
		}
		if mni.From != wantFrom {
			t.Errorf("Decoded From %q should equal %q", mni.From, wantFrom)
		}

		if tc.args.TransactionId != "" && mni.TransactionId != tc.args.TransactionId {
			t.Errorf("Decoded TransactionId %q should equal %q", mni.TransactionId, tc.args.TransactionId)
		}

		if !strings.HasPrefix(mni.ContentLocation, "http://localhost:9191/mms") {
			t.Errorf("Decoded ContentLocation %q should point at the local server", mni.ContentLocation)
		}
	}
}

func TestGetMRetrieveConfPayload(t *testing.T) {
	pl, err := getMRetrieveConfPayload(mainFlags{})
	if err != nil {
		t.Fatalf("Error building payload: %v", err)
	}

	mrc := mms.NewMRetrieveConf()
	if err := mms.NewDecoder(pl).Decode(mrc); err != nil {
		t.Fatalf("Error decoding payload: %v", err)
	}

	if mrc.From != "+543515924906/TYPE=PLMN" {
		t.Errorf("Decoded From %q has the wrong default sender", mrc.From)
	}
	if smil, err := mrc.GetSmil(); err != nil || smil == "" {
		t.Errorf("Decoded payload has no SMIL part: %v", err)
	}
	if parts := mrc.GetDataParts(); len(parts) != 2 {
		t.Errorf("Decoded payload has %d data parts, want 2", len(parts))
	}
}
