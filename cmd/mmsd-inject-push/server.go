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
	"net/http"
	"os"
	"time"
)

// createSpace returns the handler serving the m-retrieve.conf body,
// either from the file given on the command line or a default one
// generated on the fly.
func createSpace(args mainFlags, done chan<- bool) (handler http.HandlerFunc, err error) {
	if args.MRetrieveConf != "" {
		f, err := os.Open(args.MRetrieveConf)
		if err != nil {
			return handler, err
		}

		handler = func(w http.ResponseWriter, r *http.Request) {
			defer f.Close()
			http.ServeContent(w, r, "mms", time.Time{}, f)
			done <- true
		}
	} else {
		payload, err := getMRetrieveConfPayload(args)
		if err != nil {
			return handler, err
		}
		handler = func(w http.ResponseWriter, r *http.Request) {
			http.ServeContent(w, r, "mms", time.Time{}, bytes.NewReader(payload))
			done <- true
		}
	}

	return handler, err
}
