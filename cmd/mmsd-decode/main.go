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

// mmsd-decode dumps the decoded form of a stored m-retrieve.conf,
// useful when inspecting payload blobs left in the message store.
package main

import (
	"fmt"
	"os"

	"github.com/FuriLabs/mmsd4ofono/mms"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Missing filepath to MMS to decode")
		os.Exit(1)
	}

	mmsFile := os.Args[1]
	mmsData, err := os.ReadFile(mmsFile)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	mRetrieveConf := mms.NewMRetrieveConf()
	dec := mms.NewDecoder(mmsData)
	if err := dec.Decode(mRetrieveConf); err != nil {
		fmt.Println(err)
		fmt.Println(dec.GetLog())
		os.Exit(1)
	}

	fmt.Printf("From: %s\nTo: %s\nSubject: %s\nDate: %d\nTransactionId: %s\n",
		mRetrieveConf.From, mRetrieveConf.To, mRetrieveConf.Subject,
		mRetrieveConf.Date, mRetrieveConf.TransactionId)
	for i, part := range mRetrieveConf.Attachments {
		fmt.Printf("Part %d: %s %s %s (%d bytes)\n",
			i, part.MediaType, part.ContentId, part.ContentLocation, len(part.Data))
	}
}
