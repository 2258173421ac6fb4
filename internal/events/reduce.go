package events

import (
	"encoding/json"
	"fmt"

	"hydrogen-admin/internal/models"
)

// Banner texts shown for channel-level conditions.
const (
	MsgConnectFailed   = "Failed to connect to server. Please try again."
	MsgDisconnected    = "Disconnected from server. Attempting to reconnect..."
	MsgNotFound        = "Required file/folder/env not found"
	MsgNoPublications  = "No publications provided. Please go back and select publications."
	MsgCollectionError = "Collection error"
	MsgProductError    = "Product error"
	MsgGenericError    = "An error occurred"
	MsgPublishing      = "Products publishing in progress..."
)

// Reduce folds one event into the state and returns the commands the admin
// must send in response. It never mutates s; events with undecodable
// payloads leave the state unchanged.
func Reduce(s State, ev Event) (State, []Command) {
	next := s
	cmds, ok := apply(&next, ev)
	if !ok {
		return s, nil
	}
	return next, cmds
}

func apply(s *State, ev Event) ([]Command, bool) {
	switch ev.Name {
	case Connect:
		s.Connected = true
		s.Error = ""
		return s.startCommands(ev.Session), true
	case ConnectError:
		s.Connected = false
		s.Error = MsgConnectFailed
	case Disconnect:
		s.Connected = false
		s.Error = MsgDisconnected

	case PublishStatus:
		s.Error, s.Success = "", ""
	case PublishProgress:
		var p Progress
		if ev.Bind(&p) != nil {
			return nil, false
		}
		st := s.stream(p.Scope)
		if st == nil {
			s.Error, s.Success = pick(p.Error, s.Error), pick(p.Success, s.Success)
			return nil, true
		}
		if !st.admitProgress(ev.Seq, p) {
			return nil, false
		}
		st.applyProgress(p)
		st.Error, st.Success = pick(p.Error, st.Error), pick(p.Success, st.Success)
	case PublishError:
		var p ErrorPayload
		if ev.Bind(&p) != nil {
			return nil, false
		}
		switch p.Scope {
		case ScopeCollections:
			s.Collections.Error = pick(p.Message, MsgCollectionError)
			s.Collections.Terminated = true
		case ScopeProducts:
			s.Products.Error = pick(p.Message, MsgProductError)
			s.Products.Terminated = true
		default:
			s.Error = pick(p.Message, MsgGenericError)
			if p.Title == "" && p.Handle == "" {
				break
			}
			// an unscoped error naming an item is a product failure
			if !s.Products.admitItem(ev.Seq) {
				return nil, false
			}
			s.Products.Failed = appendRecord(s.Products.Failed, Record{Title: p.Title, Handle: p.Handle, Error: s.Error})
		}
	case PublishCompleted:
		var p CompletedPayload
		if ev.Bind(&p) != nil {
			return nil, false
		}
		s.Success = fmt.Sprintf("Completed: %s (%d successful)", p.Scope, p.SuccessCount)
		if st := s.stream(p.Scope); st != nil {
			st.Finished = true
		} else if s.Mode == ModeProducts {
			s.Products.Finished = true
		}
	case PublishSuccess:
		var p ItemPayload
		if ev.Bind(&p) != nil {
			return nil, false
		}
		if p.Title == "" && p.Handle == "" {
			s.Success = pick(p.Message, "Products published")
			return nil, true
		}
		s.Success = MsgPublishing
		return nil, s.Products.succeedItem(ev)
	case PublishNotFound:
		s.Error = MsgNotFound
	case PublishCategoryLanguage:
		s.CategoryLanguage = append(json.RawMessage(nil), ev.Payload...)
	case PublishFailedRecords:
		return nil, s.Collections.replaceFailed(ev)
	case ProductsFailedRecords:
		return nil, s.Products.replaceFailed(ev)

	case CollectionsProgress:
		return nil, s.scopedProgress(&s.Collections, "Collections", ev)
	case ProductsProgress:
		return nil, s.scopedProgress(&s.Products, "Products", ev)

	case CollectionsError:
		return nil, s.Collections.failItem(ev, MsgCollectionError)
	case CollectionsPublishError:
		return nil, s.Collections.failItem(ev, "Collection publish error")
	case ProductsError:
		return nil, s.Products.failItem(ev, MsgProductError)
	case ProductsPublishError:
		return nil, s.Products.failItem(ev, "Product publish error")

	case CollectionsPublished:
		return nil, s.Collections.succeedItem(ev)
	case ProductsPublished, ProductsSuccess:
		return nil, s.Products.succeedItem(ev)
	case CollectionsSuccess, CollectionsPublishSummary, ProductsPublishSummary:
		// informational only

	case CollectionsDone:
		var p DonePayload
		if ev.Bind(&p) != nil {
			return nil, false
		}
		s.Collections.Success = fmt.Sprintf("Collections done: %d/%d", p.Created, p.Total)
		s.Collections.Finished = true
	case ProductsDone:
		var p DonePayload
		if ev.Bind(&p) != nil {
			return nil, false
		}
		s.Products.Success = fmt.Sprintf("Products done: %d", p.Created)
		s.Products.Finished = true
	case ProductsWarn:
		var p MessagePayload
		if ev.Bind(&p) != nil {
			return nil, false
		}
		s.Products.Error = "Warning: " + p.Message

	case CollectionsCompleted:
		var p CollectionsCompletedPayload
		if ev.Bind(&p) != nil {
			return nil, false
		}
		return s.collectionsCompleted(ev.Session, p), true

	case ShopifyAuthCode, ShopifyAuthURL, ShopifyStatus, ShopifySuccess, ShopifyFailure, ShopifyStoreURL:
		return nil, s.applyShopify(ev)

	default:
		// commands echoed back and unknown names are ignored
		return nil, false
	}
	return nil, true
}

func (s *State) startCommands(session string) []Command {
	switch s.Mode {
	case ModeStore:
		if s.StartedStore || len(s.start) == 0 {
			return nil
		}
		var target struct {
			StoreID string `json:"storeId"`
		}
		if err := json.Unmarshal(s.start, &target); err != nil {
			s.Error = "Invalid store configuration"
			return nil
		}
		s.StartedStore = true
		s.Shopify.Status = "Sending store configuration..."
		name := ShopifyCreate
		if target.StoreID != "" {
			name = ShopifyUpdate
		}
		return []Command{{Name: name, Session: session, Payload: append(json.RawMessage(nil), s.start...)}}
	case ModeProducts:
		if s.StartedProducts {
			return nil
		}
		var start StartPayload
		if len(s.start) > 0 {
			if err := json.Unmarshal(s.start, &start); err != nil {
				start = StartPayload{}
			}
		}
		if len(start.Publications) == 0 {
			s.Products.Error = MsgNoPublications
			s.Products.Terminated = true
			return nil
		}
		s.StartedProducts = true
		s.Products.StatusText = "Starting products publish process..."
		return []Command{command(PublishProducts, session, start)}
	default:
		if s.StartedCollections {
			return nil
		}
		s.StartedCollections = true
		s.Collections.StatusText = "Starting collections publish process..."
		return []Command{command(PublishCollections, session, StartPayload{StoreName: s.StoreName, StoreID: s.StoreID})}
	}
}

func (s *State) collectionsCompleted(session string, p CollectionsCompletedPayload) []Command {
	name := pick(p.StoreName, s.StoreName)
	if !p.Success {
		s.Collections.Error = "Collections failed for " + name
		s.Collections.Terminated = true
		return nil
	}
	s.Collections.Success = "Collections completed for " + name

	if s.Mode != ModeChained || s.StartedProducts {
		return nil
	}
	s.StartedProducts = true
	s.Products.StatusText = "Starting products publish process..."
	return []Command{command(PublishProducts, session, StartPayload{StoreName: name, StoreID: pick(p.StoreID, s.StoreID)})}
}

func (s *State) scopedProgress(st *Stream, label string, ev Event) bool {
	var p Progress
	if ev.Bind(&p) != nil {
		return false
	}
	if !st.admitProgress(ev.Seq, p) {
		return false
	}
	st.applyProgress(p)

	text := pick(p.Message, p.Stage)
	if text != "" {
		text = label + ": " + text
		if p.Title != "" {
			text += " (Title: " + p.Title + ")"
		}
		if p.Handle != "" {
			text += " (Handle: " + p.Handle + ")"
		}
		st.StatusText = text
	}
	if p.Error != "" {
		st.Error = p.Error
	}
	return true
}

func (s *State) applyShopify(ev Event) bool {
	var p struct {
		Code    string `json:"code"`
		URL     string `json:"url"`
		Message string `json:"message"`
		Status  string `json:"status"`
	}
	if len(ev.Payload) > 0 && ev.Payload[0] == '"' {
		var text string
		if json.Unmarshal(ev.Payload, &text) != nil {
			return false
		}
		p.Code, p.URL, p.Message = text, text, text
	} else if ev.Bind(&p) != nil {
		return false
	}

	sh := &s.Shopify
	switch ev.Name {
	case ShopifyAuthCode:
		sh.AuthCode = p.Code
	case ShopifyAuthURL:
		sh.AuthURL = p.URL
	case ShopifyStoreURL:
		sh.StoreURL = p.URL
	case ShopifyStatus:
		sh.Status = pick(p.Status, p.Message)
	case ShopifySuccess:
		sh.Succeeded, sh.Failed = true, false
		s.Success = pick(p.Message, "Store created successfully")
	case ShopifyFailure:
		sh.Failed = true
		s.Error = pick(p.Message, "Store creation failed")
	}
	if line := pick(p.Message, pick(p.Status, pick(p.URL, p.Code))); line != "" {
		sh.Log = append(append(make([]string, 0, len(sh.Log)+1), sh.Log...), string(ev.Name)+": "+line)
	}
	return true
}

// admitProgress applies the sequencing rules. A reset is taken only if it is
// newer than anything applied; older events are ignored.
func (st *Stream) admitProgress(seq uint64, p Progress) bool {
	if seq == 0 {
		return true
	}
	if seq < st.resetSeq || seq < st.maxSeq {
		return false
	}
	if p.IsReset() {
		if seq == st.maxSeq {
			return false
		}
		st.resetSeq = seq
	}
	st.maxSeq = seq
	return true
}

// admitItem drops items that belong to a run before the latest reset.
func (st *Stream) admitItem(seq uint64) bool {
	if seq == 0 {
		return true
	}
	if seq < st.resetSeq {
		return false
	}
	if seq > st.maxSeq {
		st.maxSeq = seq
	}
	return true
}

func (st *Stream) applyProgress(p Progress) {
	if p.IsReset() {
		st.Status = models.ProcessingStatus{}
		st.Failed = []Record{}
		st.Successful = []Record{}
		st.Error, st.Success = "", ""
		st.Terminated, st.Finished = false, false
	}

	st.Status.Total = maxInt(st.Status.Total, p.Total)
	st.Status.Processed = maxInt(st.Status.Processed, p.Processed)
	st.Status.Successful = maxInt(st.Status.Successful, p.Successful)
	st.Status.Failed = maxInt(st.Status.Failed, p.Failed)

	if sum := st.Status.Successful + st.Status.Failed; sum > st.Status.Processed {
		st.Status.Processed = sum
	}
	if st.Status.Total > 0 && st.Status.Processed > st.Status.Total {
		st.Status.Total = st.Status.Processed
	}
}

func (st *Stream) failItem(ev Event, fallback string) bool {
	var p ItemPayload
	if ev.Bind(&p) != nil || !st.admitItem(ev.Seq) {
		return false
	}
	reason := pick(p.reason(), fallback)
	st.Error = reason
	st.Failed = appendRecord(st.Failed, Record{Title: p.Title, Handle: p.Handle, Error: reason})
	return true
}

func (st *Stream) succeedItem(ev Event) bool {
	var p ItemPayload
	if ev.Bind(&p) != nil || !st.admitItem(ev.Seq) {
		return false
	}
	st.Successful = appendRecord(st.Successful, Record{Title: p.Title, Handle: p.Handle})
	return true
}

func (st *Stream) replaceFailed(ev Event) bool {
	if !st.admitItem(ev.Seq) {
		return false
	}
	records, err := recordsFromPayload(ev.Payload)
	if err != nil {
		return false
	}
	st.Failed = dedupe(records)
	return true
}

// appendRecord returns a new slice; a record whose (title, handle) is
// already present is dropped.
func appendRecord(list []Record, rec Record) []Record {
	for _, r := range list {
		if r.key() == rec.key() {
			return list
		}
	}
	out := make([]Record, len(list), len(list)+1)
	copy(out, list)
	return append(out, rec)
}

func dedupe(records []Record) []Record {
	out := make([]Record, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if seen[r.key()] {
			continue
		}
		seen[r.key()] = true
		out = append(out, r)
	}
	return out
}

func command(name Name, session string, payload interface{}) Command {
	raw, _ := json.Marshal(payload)
	return Command{Name: name, Session: session, Payload: raw}
}

func pick(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func maxInt(current int, incoming *int) int {
	if incoming == nil || *incoming < current {
		return current
	}
	return *incoming
}
