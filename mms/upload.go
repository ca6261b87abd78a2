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
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"time"
)

// swappable for testing
var dialTransport = func(addr string) (net.Conn, error) {
	return net.DialTimeout("tcp", addr, 30*time.Second)
}

// Upload posts an encoded PDU to the MMSC, connecting through proxy
// when one is set. The request is written directly on the socket as a
// minimal HTTP/1.0 POST; carrier proxies tend to choke on anything
// fancier. It returns the response body, the m-send.conf when the
// MMSC sends one.
func Upload(payload []byte, msc, proxy string) ([]byte, error) {
	mscURL, err := url.Parse(msc)
	if err != nil {
		return nil, fmt.Errorf("cannot parse MMSC %q: %w", msc, err)
	}
	host := mscURL.Host
	if host == "" {
		host = msc
	}

	addr := proxy
	if addr == "" {
		addr = host
	}
	if !strings.Contains(addr, ":") {
		addr = addr + ":80"
	}

	conn, err := dialTransport(addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(3 * time.Minute))

	var req bytes.Buffer
	fmt.Fprintf(&req, "POST %s HTTP/1.0\r\n", msc)
	fmt.Fprintf(&req, "Host: %s\r\n", host)
	fmt.Fprintf(&req, "Content-Type: %s\r\n", ContentTypeMMSMessage)
	fmt.Fprintf(&req, "Content-Length: %d\r\n", len(payload))
	req.WriteString("Connection: close\r\n\r\n")
	req.Write(payload)

	if _, err := conn.Write(req.Bytes()); err != nil {
		return nil, err
	}

	r := bufio.NewReader(conn)
	statusLine, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("cannot read MMSC response status: %w", err)
	}
	fields := strings.Fields(statusLine)
	if len(fields) < 2 || fields[1] != "200" {
		return nil, fmt.Errorf("MMSC answered %q", strings.TrimSpace(statusLine))
	}
	// skip response headers
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("cannot read MMSC response headers: %w", err)
		}
		if line == "\r\n" || line == "\n" {
			break
		}
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read MMSC response body: %w", err)
	}
	return body, nil
}
