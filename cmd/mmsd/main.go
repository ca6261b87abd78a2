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
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/FuriLabs/mmsd4ofono/ofono"
	"github.com/FuriLabs/mmsd4ofono/service"
	flags "github.com/jessevdk/go-flags"
	"launchpad.net/go-dbus"
)

const version = "0.1.0"

func main() {
	var args struct {
		Verbose bool `long:"verbose" short:"v" description:"log file names and line numbers with every message"`
		Version bool `long:"version" short:"V" description:"print version and exit"`
	}
	parser := flags.NewParser(&args, flags.Default)
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}
	if args.Version {
		fmt.Println("mmsd4ofono", version)
		return
	}
	if os.Getenv("MODEM_DEBUG") != "" {
		args.Verbose = true
	}
	if args.Verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	conn, err := dbus.Connect(dbus.SystemBus)
	if err != nil {
		log.Fatal("Connection error: ", err)
	}
	log.Print("Using system bus on ", conn.UniqueName)

	mmsManager, err := service.NewMMSManager(conn)
	if err != nil {
		log.Fatal(err)
	}

	modemManager := ofono.NewModemManager(conn)
	mediators := make(map[dbus.ObjectPath]*Mediator)
	go func() {
		for {
			select {
			case modem := <-modemManager.ModemAdded:
				mediators[modem.Modem] = NewMediator(modem)
				go mediators[modem.Modem].init(mmsManager)
				if err := modem.Init(); err != nil {
					log.Printf("Cannot initialize modem %s", modem.Modem)
				}
			case modem := <-modemManager.ModemRemoved:
				mediators[modem.Modem].Delete()
				delete(mediators, modem.Modem)
			case <-mmsManager.Rediscover:
				go modemManager.Discover(conn)
			}
		}
	}()

	if err := modemManager.Init(); err != nil {
		log.Fatal(err)
	}

	m := Mainloop{
		sigchan:  make(chan os.Signal, 1),
		termchan: make(chan int),
		Bindings: make(map[os.Signal]func())}

	m.Bindings[syscall.SIGHUP] = func() { m.Stop(); HupHandler() }
	m.Bindings[syscall.SIGINT] = func() { m.Stop(); IntHandler() }
	m.Start()
}
