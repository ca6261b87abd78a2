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
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/FuriLabs/mmsd4ofono/mms"
	"github.com/FuriLabs/mmsd4ofono/ofono"
	"github.com/FuriLabs/mmsd4ofono/service"
	"github.com/FuriLabs/mmsd4ofono/storage"
	"launchpad.net/go-dbus"
)

var (
	fetchRetryDelay = 5 * time.Second
	sendRetryDelay  = 5 * time.Second
)

// swappable for testing
var fetchContent = func(location string, proxy ofono.ProxyInfo) ([]byte, error) {
	client := &http.Client{Timeout: 3 * time.Minute}
	if proxy.Host != "" {
		proxyURL, err := url.Parse("http://" + proxy.String())
		if err != nil {
			return nil, err
		}
		client.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	resp, err := client.Get(location)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("message center answered %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

var uploadPayload = func(payload []byte, msc, proxy string) ([]byte, error) {
	return mms.Upload(payload, msc, proxy)
}

var exportMessage = func(svc *service.MMSService, im *service.InboundMessage) error {
	return svc.IncomingMessageAdded(im)
}

var replySendMessage = func(svc *service.MMSService, reply *dbus.Message, uuid string, properties map[string]dbus.Variant) (dbus.ObjectPath, error) {
	return svc.ReplySendMessage(reply, uuid, properties)
}

var messageStatusChanged = func(svc *service.MMSService, uuid, status string) error {
	return svc.MessageStatusChanged(uuid, status)
}

type Mediator struct {
	modem           *ofono.Modem
	msgService      *service.MMSService
	modemManager    *service.ModemManager
	outMessage      chan *service.OutgoingMessage
	terminate       chan bool
	cancelWatch     chan struct{}
	drainKick       chan struct{}
	contextLock     sync.Mutex
	queueLock       sync.Mutex
	queue           []*storage.PendingNotification
	watchedContexts map[dbus.ObjectPath]bool
}

func NewMediator(modem *ofono.Modem) *Mediator {
	mediator := &Mediator{modem: modem}
	mediator.outMessage = make(chan *service.OutgoingMessage)
	mediator.terminate = make(chan bool)
	mediator.cancelWatch = make(chan struct{})
	mediator.drainKick = make(chan struct{}, 1)
	mediator.watchedContexts = make(map[dbus.ObjectPath]bool)
	mediator.queue = storage.ListPending()
	if len(mediator.queue) > 0 {
		log.Printf("Reloaded %d pending notifications from storage", len(mediator.queue))
	}
	return mediator
}

func (mediator *Mediator) Delete() {
	close(mediator.cancelWatch)
	mediator.terminate <- mediator.msgService == nil
}

func (mediator *Mediator) init(mmsManager *service.MMSManager) {
	mediator.modemManager = mmsManager.ModemManager()
	mediator.modem.Tracker().OnPropertyChanged(ofono.SIM_MANAGER_INTERFACE, mediator.handleSimProperty)
	mediator.modem.Tracker().OnPropertyChanged(ofono.CONNECTION_MANAGER_INTERFACE, mediator.handleConnectionProperty)
	go mediator.drainQueue()
mediatorLoop:
	for {
		select {
		case push, ok := <-mediator.modem.PushAgent.Push:
			if !ok {
				log.Print("Push channel is closed")
				continue
			}
			go mediator.handlePushAgentNotification(push)
		case data := <-mediator.modemManager.PushChan:
			if !mediator.modemManager.AutoProcessSMSWAP() {
				log.Print("SMS WAP processing is disabled")
				continue
			}
			go mediator.handleRawPush(data)
		case <-mediator.modemManager.ProcessQueueChan:
			mediator.kickDrain()
		case change := <-mediator.modemManager.SettingsChan:
			go mediator.applyContextSetting(change)
		case msg := <-mediator.outMessage:
			go mediator.handleOutgoingMessage(msg)
		case id := <-mediator.modem.IdentityAdded:
			var err error
			mediator.msgService, err = mmsManager.AddService(id, mediator.modem.Modem, mediator.outMessage, false)
			if err != nil {
				log.Fatal(err)
			}
			mediator.refreshCarrierSettings()
			mediator.initializeMessages()
			mediator.kickDrain()
		case id := <-mediator.modem.IdentityRemoved:
			if err := mmsManager.RemoveService(id); err != nil {
				log.Print("Cannot remove service: ", err)
			}
			mediator.msgService = nil
		case available := <-mediator.modem.PushInterfaceAvailable:
			if available {
				if !mediator.simPresent() {
					log.Print("SIM not present, postponing agent registration")
					continue
				}
				if err := mediator.modem.PushAgent.Register(); err != nil {
					log.Fatal(err)
				}
			} else {
				if err := mediator.modem.PushAgent.Unregister(); err != nil {
					log.Fatal(err)
				}
			}
		case terminate := <-mediator.terminate:
			if terminate {
				break mediatorLoop
			}
		}
	}
	log.Print("Ending mediator instance loop for modem")
}

func (mediator *Mediator) kickDrain() {
	select {
	case mediator.drainKick <- struct{}{}:
	default:
	}
}

func (mediator *Mediator) simPresent() bool {
	props := mediator.modem.Tracker().Properties(ofono.SIM_MANAGER_INTERFACE)
	if props == nil {
		return false
	}
	if present, ok := props["Present"].Value.(bool); ok {
		return present
	}
	return false
}

func (mediator *Mediator) handleSimProperty(iface, property string, value dbus.Variant) {
	switch property {
	case "Present":
		if present, ok := value.Value.(bool); ok && present {
			go func() {
				if err := mediator.modem.PushAgent.Register(); err != nil {
					log.Print("Cannot register push agent: ", err)
				}
			}()
		}
	case "SubscriberNumbers":
		go mediator.refreshCarrierSettings()
	}
}

func (mediator *Mediator) handleConnectionProperty(iface, property string, value dbus.Variant) {
	if property != "Attached" {
		return
	}
	if attached, ok := value.Value.(bool); ok && attached && mediator.modemManager.AutoProcessOnConnection() {
		mediator.kickDrain()
	}
}

// handleRawPush processes a push payload injected through PushNotify the
// same way as one delivered by the registered agent.
func (mediator *Mediator) handleRawPush(data []byte) {
	pdu := &ofono.PushPDU{}
	if err := ofono.NewDecoder(data).Decode(pdu); err != nil {
		log.Print("Cannot decode injected push: ", err)
		return
	}
	if pdu.ApplicationId != mms.PUSH_APPLICATION_ID || pdu.ContentType != mms.VND_WAP_MMS_MESSAGE {
		log.Print("Injected push is not an MMS notification, ignoring")
		return
	}
	mediator.handlePushAgentNotification(pdu)
}

// sanitizeHeader strips non printable characters and quotes; some
// carriers pad header values with both.
func sanitizeHeader(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '\'' || !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s)
}

func (mediator *Mediator) handlePushAgentNotification(pushMsg *ofono.PushPDU) {
	if pushMsg == nil {
		log.Print("Received nil push")
		return
	}

	dec := mms.NewDecoder(pushMsg.Data)
	mNotificationInd := mms.NewMNotificationInd()
	if err := dec.Decode(mNotificationInd); err != nil {
		log.Println("Unable to decode m-notification.ind:", err, "with log", dec.GetLog())
		mediator.signalReceiveError(err)
		return
	}

	mNotificationInd.TransactionId = sanitizeHeader(mNotificationInd.TransactionId)
	mNotificationInd.ContentLocation = sanitizeHeader(mNotificationInd.ContentLocation)
	mNotificationInd.From = sanitizeHeader(mNotificationInd.From)
	mNotificationInd.Subject = sanitizeHeader(mNotificationInd.Subject)

	if mNotificationInd.ContentLocation == "" {
		log.Print("Dropping m-notification.ind without a content location")
		return
	}

	info := make(map[string]string, len(pushMsg.Info)+1)
	for k, v := range pushMsg.Info {
		info[k] = v
	}
	info["Subject"] = mNotificationInd.Subject

	pn := &storage.PendingNotification{
		UUID:            mms.GenUUID(),
		TransactionId:   mNotificationInd.TransactionId,
		ContentLocation: mNotificationInd.ContentLocation,
		Sender:          mNotificationInd.From,
		Enqueued:        time.Now().Unix(),
		Info:            info,
	}
	if mediator.fetchAndExport(pn) {
		log.Printf("Cannot fetch %s right now, queueing for retry", pn.ContentLocation)
		if err := storage.SavePending(pn); err != nil {
			log.Print("Cannot persist pending notification: ", err)
		}
		mediator.enqueue(pn)
	}
}

func (mediator *Mediator) enqueue(pn *storage.PendingNotification) {
	mediator.queueLock.Lock()
	mediator.queue = append(mediator.queue, pn)
	mediator.queueLock.Unlock()
}

func (mediator *Mediator) dequeue() *storage.PendingNotification {
	mediator.queueLock.Lock()
	defer mediator.queueLock.Unlock()
	if len(mediator.queue) == 0 {
		return nil
	}
	pn := mediator.queue[0]
	mediator.queue = mediator.queue[1:]
	return pn
}

// drainQueue retries pending fetches one at a time; a failed item goes
// back to the tail of the queue.
func (mediator *Mediator) drainQueue() {
	for {
		select {
		case <-mediator.cancelWatch:
			return
		case <-mediator.drainKick:
		case <-time.After(fetchRetryDelay):
		}
		mediator.drainOnce()
	}
}

func (mediator *Mediator) drainOnce() {
	pn := mediator.dequeue()
	if pn == nil {
		return
	}
	if mediator.fetchAndExport(pn) {
		mediator.enqueue(pn)
	}
}

// fetchAndExport downloads and processes a pending notification. It
// reports whether the item should be requeued: fetch failures are
// retryable, decode failures are terminal.
func (mediator *Mediator) fetchAndExport(pn *storage.PendingNotification) (requeue bool) {
	data, err := fetchNotification(mediator, pn)
	if err != nil {
		log.Printf("Cannot fetch %s: %s", pn.ContentLocation, err)
		return true
	}
	if err := mediator.processRetrieved(pn, data); err != nil {
		log.Printf("Cannot process message %s: %s", pn.UUID, err)
		mediator.signalReceiveError(err)
		if err := storage.DeletePending(pn.UUID); err != nil && !os.IsNotExist(err) {
			log.Print("Cannot remove pending notification: ", err)
		}
		return false
	}
	if err := storage.DeletePending(pn.UUID); err != nil && !os.IsNotExist(err) {
		log.Print("Cannot remove pending notification: ", err)
	}
	return false
}

var fetchNotification = func(mediator *Mediator, pn *storage.PendingNotification) ([]byte, error) {
	mediator.contextLock.Lock()
	defer mediator.contextLock.Unlock()

	var preferred dbus.ObjectPath
	if mediator.msgService != nil {
		preferred, _ = mediator.msgService.GetPreferredContext()
	}
	mmsContext, err := mediator.modem.ActivateMMSContext(preferred)
	if err != nil {
		return nil, fmt.Errorf("cannot activate ofono context: %w", err)
	}
	mediator.watchContext(mmsContext)
	if mediator.msgService != nil {
		if err := mediator.msgService.SetPreferredContext(mmsContext.ObjectPath); err != nil {
			log.Println("Unable to store the preferred context for MMS:", err)
		}
	}
	proxy, err := mmsContext.GetProxy()
	if err != nil {
		return nil, fmt.Errorf("cannot retrieve proxy: %w", err)
	}
	return fetchContent(pn.ContentLocation, proxy)
}

// watchContext arms re-activation for a context the first time it is
// used; the watch keeps forcing the context back up when ofono drops it.
func (mediator *Mediator) watchContext(context ofono.OfonoContext) {
	if mediator.watchedContexts[context.ObjectPath] {
		return
	}
	if err := mediator.modem.WatchMMSContext(context, mediator.cancelWatch); err != nil {
		log.Print("Cannot watch context ", context.ObjectPath, ": ", err)
		return
	}
	mediator.watchedContexts[context.ObjectPath] = true
}

func (mediator *Mediator) signalReceiveError(err error) {
	if mediator.msgService == nil {
		return
	}
	if sigErr := mediator.msgService.SignalMessageReceiveError(err.Error()); sigErr != nil {
		log.Print("Cannot signal receive error: ", sigErr)
	}
}

func (mediator *Mediator) processRetrieved(pn *storage.PendingNotification, data []byte) error {
	mRetrieveConf := mms.NewMRetrieveConf()
	dec := mms.NewDecoder(data)
	if err := dec.Decode(mRetrieveConf); err != nil {
		return fmt.Errorf("unable to decode m-retrieve.conf: %s with log %s", err, dec.GetLog())
	}

	if _, err := storage.CreatePayload(pn.UUID, data); err != nil {
		return fmt.Errorf("cannot store message payload: %w", err)
	}
	if err := storage.WriteHeaders(pn.UUID, headersOf(pn, mRetrieveConf)); err != nil {
		log.Print("Cannot store message headers: ", err)
	}

	parts, partPaths, err := settleParts(pn.UUID, mRetrieveConf)
	if err != nil {
		return fmt.Errorf("cannot store attachments: %w", err)
	}

	smil, _ := mRetrieveConf.GetSmil()
	smil = mms.NormalizeSMIL(smil)
	attachments := exportAttachments(smil, parts, partPaths)

	date := sentDate(pn.Info["SentTime"], mRetrieveConf.Date)
	status := storage.Status{
		Read:  false,
		State: storage.RECEIVED,
		Id:    mRetrieveConf.TransactionId,
		Date:  date,
	}
	if err := storage.WriteStatus(pn.UUID, status); err != nil {
		log.Print("Cannot store message status: ", err)
	}

	sender := mRetrieveConf.From
	if sender == "" {
		sender = pn.Sender
	}

	im := &service.InboundMessage{
		UUID:           pn.UUID,
		Date:           date,
		Sender:         sender,
		Subject:        mRetrieveConf.Subject,
		DeliveryReport: mRetrieveConf.DeliveryReport == mms.DELIVERY_REPORT_YES,
		ModemNumber:    mediator.ownNumber(),
		Recipients:     mediator.recipientsOf(sender, mRetrieveConf.To),
		Smil:           smil,
		Attachments:    attachments,
	}
	if mediator.msgService == nil {
		return fmt.Errorf("no service exported for message %s", pn.UUID)
	}
	if err := exportMessage(mediator.msgService, im); err != nil {
		return fmt.Errorf("cannot export message %s: %w", pn.UUID, err)
	}
	return nil
}

// settleParts stores every multipart part under the token, SMIL
// included, and returns the non-SMIL parts together with their on-disk
// paths. Parts already on disk keep their existing file.
func settleParts(uuid string, mRetrieveConf *mms.MRetrieveConf) ([]mms.Attachment, []string, error) {
	var parts []mms.Attachment
	var paths []string
	for i := range mRetrieveConf.Attachments {
		part := mRetrieveConf.Attachments[i]
		partPath, err := storage.GetAttachment(uuid, i)
		if err != nil {
			if partPath, err = storage.WriteAttachment(uuid, i, part.Data); err != nil {
				return nil, nil, err
			}
		}
		if strings.HasPrefix(part.MediaType, "application/smil") {
			continue
		}
		parts = append(parts, part)
		paths = append(paths, partPath)
	}
	return parts, paths, nil
}

// exportAttachments builds the bus attachment tuples: each one points
// at its own part file, whole, so offsets are always zero.
func exportAttachments(smil string, parts []mms.Attachment, paths []string) []service.Attachment {
	ids := deriveContentIds(smil, parts)
	attachments := make([]service.Attachment, 0, len(parts))
	for i := range parts {
		attachments = append(attachments, service.Attachment{
			Id:        ids[i],
			MediaType: parts[i].MediaType,
			FilePath:  paths[i],
			Offset:    0,
			Length:    uint64(len(parts[i].Data)),
		})
	}
	return attachments
}

func headersOf(pn *storage.PendingNotification, mRetrieveConf *mms.MRetrieveConf) map[string]string {
	headers := map[string]string{
		"From":             mRetrieveConf.From,
		"Transaction-Id":   mRetrieveConf.TransactionId,
		"Content-Location": pn.ContentLocation,
	}
	if mRetrieveConf.Subject != "" {
		headers["Subject"] = mRetrieveConf.Subject
	}
	if len(mRetrieveConf.To) > 0 {
		headers["To"] = strings.Join(mRetrieveConf.To, ",")
	}
	return headers
}

// deriveContentIds matches SMIL src references to data parts by
// position. Parts already carrying a content id keep it; unreferenced
// parts (vcards and the like) fall back to their index.
func deriveContentIds(smil string, parts []mms.Attachment) []string {
	refs := mms.ExtractSMILRefs(smil)
	ids := make([]string, len(parts))
	for i := range parts {
		switch {
		case parts[i].ContentId != "":
			ids[i] = parts[i].ContentId
		case i < len(refs) && refs[i].Src != "":
			name := refs[i].Src
			name = strings.TrimSuffix(name, filepath.Ext(name))
			ids[i] = "<" + name + ">"
		default:
			ids[i] = fmt.Sprintf("<%d>", i)
		}
	}
	return ids
}

func stripPlmn(addr string) string {
	if strings.HasSuffix(addr, mms.PlmnSuffix) {
		return addr[:len(addr)-len(mms.PlmnSuffix)]
	}
	return addr
}

// deriveRecipients builds the recipients list for a received message:
// every To entry other than the receiving number, the receiving number
// first and the sender last. A message addressed only to the receiving
// number keeps an empty list.
func deriveRecipients(own, sender string, to []string) []string {
	own = stripPlmn(own)
	others := make([]string, 0, len(to))
	for _, t := range to {
		if t = stripPlmn(t); t != own {
			others = append(others, t)
		}
	}
	if len(others) == 0 {
		return nil
	}
	recipients := make([]string, 0, len(others)+2)
	if own != "" {
		recipients = append(recipients, own)
	}
	recipients = append(recipients, others...)
	return append(recipients, stripPlmn(sender))
}

func (mediator *Mediator) recipientsOf(sender string, to []string) []string {
	return deriveRecipients(mediator.ownNumber(), sender, to)
}

func (mediator *Mediator) ownNumber() string {
	props := mediator.modem.Tracker().Properties(ofono.SIM_MANAGER_INTERFACE)
	if props != nil {
		if numbers := variantStrings(props["SubscriberNumbers"]); len(numbers) > 0 {
			return numbers[0]
		}
	}
	if mediator.modemManager != nil {
		return mediator.modemManager.ModemNumber()
	}
	return ""
}

func variantStrings(v dbus.Variant) []string {
	value := reflect.ValueOf(v.Value)
	if value.Kind() != reflect.Slice {
		return nil
	}
	out := make([]string, 0, value.Len())
	for i := 0; i < value.Len(); i++ {
		out = append(out, reflect.ValueOf(value.Index(i).Interface()).String())
	}
	return out
}

func parseDate(unixTime uint64) string {
	if unixTime == 0 {
		return time.Now().Format(time.RFC3339)
	}
	return time.Unix(int64(unixTime), 0).Format(time.RFC3339)
}

// sentTimeLayouts cover the timestamp formats ofono puts in the push
// notification info dict.
var sentTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05-0700"}

// sentDate resolves the date of a received message: the sent time the
// push notification carried wins over the Date header of the
// m-retrieve.conf.
func sentDate(sentTime string, headerDate uint64) string {
	for _, layout := range sentTimeLayouts {
		if t, err := time.Parse(layout, sentTime); err == nil {
			return t.Format(time.RFC3339)
		}
	}
	return parseDate(headerDate)
}

// refreshCarrierSettings feeds the modem manager properties from what
// the SIM and the mms context currently report.
func (mediator *Mediator) refreshCarrierSettings() {
	if mediator.modemManager == nil {
		return
	}
	number := ""
	props := mediator.modem.Tracker().Properties(ofono.SIM_MANAGER_INTERFACE)
	if props != nil {
		if numbers := variantStrings(props["SubscriberNumbers"]); len(numbers) > 0 {
			number = numbers[0]
		}
	}
	var apn, mmsc, proxy string
	var preferred dbus.ObjectPath
	if mediator.msgService != nil {
		preferred, _ = mediator.msgService.GetPreferredContext()
	}
	if contexts, err := mediator.modem.GetMMSContexts(preferred); err == nil && len(contexts) > 0 {
		apn = contexts[0].GetAPN()
		mmsc, _ = contexts[0].GetMessageCenter()
		if p, err := contexts[0].GetProxy(); err == nil {
			proxy = p.String()
		}
	}
	if err := mediator.modemManager.UpdateFromModem(number, apn, mmsc, proxy); err != nil {
		log.Print("Cannot update carrier settings: ", err)
	}
}

// applyContextSetting writes a carrier setting changed over the bus back
// to the mms context so ofono and the settings file agree.
func (mediator *Mediator) applyContextSetting(change service.SettingChange) {
	var property string
	switch change.Name {
	case "MMS_APN":
		property = "AccessPointName"
	case "CarrierMMSC":
		property = "MessageCenter"
	case "CarrierMMSProxy":
		property = "MessageProxy"
	default:
		return
	}
	var preferred dbus.ObjectPath
	if mediator.msgService != nil {
		preferred, _ = mediator.msgService.GetPreferredContext()
	}
	contexts, err := mediator.modem.GetMMSContexts(preferred)
	if err != nil || len(contexts) == 0 {
		log.Print("No mms context to write ", change.Name, " back to")
		return
	}
	if err := mediator.modem.SetContextProperty(contexts[0], property, change.Value); err != nil {
		log.Print("Cannot write ", property, " to context: ", err)
	}
}

func (mediator *Mediator) handleOutgoingMessage(msg *service.OutgoingMessage) {
	var cts []*mms.Attachment
	for _, att := range msg.Attachments {
		mediaType := strings.ToLower(strings.SplitN(att.ContentType, ";", 2)[0])
		switch {
		case strings.HasPrefix(mediaType, "text/"):
		case strings.HasPrefix(mediaType, "image/"):
		case strings.HasPrefix(mediaType, "audio/"):
			// audio rides the image path; players sort it out by media type
		default:
			log.Printf("Skipping attachment %s with unsupported media type %s", att.Id, mediaType)
			continue
		}
		ct, err := mms.NewAttachment(att.Id, att.ContentType, att.FilePath)
		if err != nil {
			log.Print(err)
			continue
		}
		cts = append(cts, ct)
	}

	smil := msg.Smil
	if smil == "" && mediator.msgService != nil && mediator.msgService.AutoCreateSMIL() && len(cts) > 0 {
		smil = mms.GenerateSMIL(cts)
	}
	if smil != "" {
		smil = mms.NormalizeSMIL(smil)
		cts = append(cts, &mms.Attachment{
			MediaType:       "application/smil",
			ContentId:       "<smil>",
			ContentLocation: "smil.xml",
			Data:            []byte(smil),
		})
	}

	useDeliveryReports := mediator.msgService != nil && mediator.msgService.UseDeliveryReports()
	mSendReq := mms.NewMSendReq(msg.Recipients, cts, useDeliveryReports)

	var buf bytes.Buffer
	if err := mms.NewEncoder(&buf).Encode(mSendReq); err != nil {
		log.Print("Unable to encode m-send.req for ", mSendReq.UUID, ": ", err)
		if mediator.msgService != nil {
			path := mediator.msgService.GenMessagePath(mSendReq.UUID)
			if sigErr := mediator.msgService.SignalMessageSendError(path, err.Error()); sigErr != nil {
				log.Print("Cannot signal send error: ", sigErr)
			}
		}
		return
	}

	date := time.Now().Format(time.RFC3339)
	if _, err := storage.CreatePayload(mSendReq.UUID, buf.Bytes()); err != nil {
		log.Print("Cannot store m-send.req payload: ", err)
	}
	status := storage.Status{
		Read:  false,
		State: storage.SENT,
		Id:    mSendReq.TransactionId,
		Date:  date,
	}
	if err := storage.WriteStatus(mSendReq.UUID, status); err != nil {
		log.Print("Cannot store m-send.req status: ", err)
	}

	recipients := make([]string, 0, len(mSendReq.To))
	for _, to := range mSendReq.To {
		recipients = append(recipients, stripPlmn(to))
	}
	properties := map[string]dbus.Variant{
		"Date":         {date},
		"Modem Number": {mediator.ownNumber()},
		"Recipients":   {recipients},
	}
	if _, err := replySendMessage(mediator.msgService, msg.Reply, mSendReq.UUID, properties); err != nil {
		log.Print(err)
		return
	}
	if err := messageStatusChanged(mediator.msgService, mSendReq.UUID, service.SENT); err != nil {
		log.Print(err)
	}

	mediator.sendMSendReq(buf.Bytes(), mSendReq.UUID)
}

// sendMSendReq pushes the encoded payload to the message center,
// retrying until it goes through or the mediator is torn down.
func (mediator *Mediator) sendMSendReq(payload []byte, uuid string) {
	for {
		err := uploadOnce(mediator, payload)
		if err == nil {
			log.Print("Sent message ", uuid)
			return
		}
		log.Printf("Cannot send message %s: %s, retrying", uuid, err)
		select {
		case <-mediator.cancelWatch:
			return
		case <-time.After(sendRetryDelay):
		}
	}
}

var uploadOnce = func(mediator *Mediator, payload []byte) error {
	mediator.contextLock.Lock()
	defer mediator.contextLock.Unlock()

	var preferred dbus.ObjectPath
	if mediator.msgService != nil {
		preferred, _ = mediator.msgService.GetPreferredContext()
	}
	mmsContext, err := mediator.modem.ActivateMMSContext(preferred)
	if err != nil {
		return fmt.Errorf("cannot activate ofono context: %w", err)
	}
	mediator.watchContext(mmsContext)

	msc, err := mmsContext.GetMessageCenter()
	if err != nil {
		return fmt.Errorf("cannot retrieve MMSC setting: %w", err)
	}
	proxy := ""
	if p, err := mmsContext.GetProxy(); err == nil {
		proxy = p.String()
	}

	response, err := uploadPayload(payload, msc, proxy)
	if err != nil {
		return err
	}
	mSendConf := mms.NewMSendConf()
	if err := mms.NewDecoder(response).Decode(mSendConf); err != nil {
		// no m-send.conf in the response body; the POST went through
		return nil
	}
	if err := mSendConf.Status(); err != nil {
		return err
	}
	return nil
}

// initializeMessages re-exports messages left in the store from a
// previous run so clients can still list and read them.
func (mediator *Mediator) initializeMessages() {
	uuids := storage.Rehydratable()
	if len(uuids) == 0 {
		return
	}
	log.Printf("Found %d stored messages to rehydrate", len(uuids))
	for _, uuid := range uuids {
		if mediator.msgService.HasMessage(uuid) {
			continue
		}
		if err := mediator.rehydrate(uuid); err != nil {
			log.Printf("Cannot rehydrate message %s: %s", uuid, err)
		}
	}
}

func (mediator *Mediator) rehydrate(uuid string) error {
	status, err := storage.ReadStatus(uuid)
	if err != nil {
		return err
	}
	filePath, err := storage.GetPayload(uuid)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	mRetrieveConf := mms.NewMRetrieveConf()
	dec := mms.NewDecoder(data)
	if err := dec.Decode(mRetrieveConf); err != nil {
		return fmt.Errorf("unable to decode stored message: %s", err)
	}

	smil, _ := mRetrieveConf.GetSmil()
	smil = mms.NormalizeSMIL(smil)
	parts, partPaths, err := settleParts(uuid, mRetrieveConf)
	if err != nil {
		return err
	}
	attachments := exportAttachments(smil, parts, partPaths)

	im := &service.InboundMessage{
		UUID:           uuid,
		Date:           status.Date,
		Sender:         mRetrieveConf.From,
		Subject:        mRetrieveConf.Subject,
		DeliveryReport: mRetrieveConf.DeliveryReport == mms.DELIVERY_REPORT_YES,
		ModemNumber:    mediator.ownNumber(),
		Recipients:     mediator.recipientsOf(mRetrieveConf.From, mRetrieveConf.To),
		Smil:           smil,
		Attachments:    attachments,
	}
	return exportMessage(mediator.msgService, im)
}
