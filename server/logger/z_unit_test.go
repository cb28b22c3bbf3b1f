// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestParseLogMode(t *testing.T) {
	for in, want := range map[string]LogMode{"dev": ModeDev, "PROD": ModeProd, " silence ": ModeSilence} {
		got, err := ParseLogMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseLogMode(%q) = %v, %v", in, got, err)
		}
		if got.String() != map[LogMode]string{ModeDev: "dev", ModeProd: "prod", ModeSilence: "silence"}[want] {
			t.Fatalf("String() mismatch for %v", want)
		}
	}
	if _, err := ParseLogMode("verbose"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestAsyncHandlerDrainsOnClose(t *testing.T) {
	var buf bytes.Buffer
	ah := NewAsyncHandler(slog.NewTextHandler(&buf, nil), 16)
	log := slog.New(ah).With("svc", "wdmlab")
	for i := 0; i < 5; i++ {
		log.Info("draw batch", "i", i)
	}
	ah.Close()
	if got := bytes.Count(buf.Bytes(), []byte("draw batch")); got != 5 {
		t.Fatalf("want 5 records, got %d", got)
	}
	if !bytes.Contains(buf.Bytes(), []byte("svc=wdmlab")) {
		t.Fatalf("WithAttrs lost")
	}
	// Close 之後的紀錄全部丟棄
	_ = ah.Handle(context.Background(), slog.Record{})
	if ah.Dropped() != 1 {
		t.Fatalf("want 1 dropped, got %d", ah.Dropped())
	}
}

type blockingHandler struct {
	slog.Handler
	release chan struct{}
}

func (b blockingHandler) Handle(ctx context.Context, r slog.Record) error {
	<-b.release
	return b.Handler.Handle(ctx, r)
}

func TestAsyncHandlerDropsWhenFull(t *testing.T) {
	var buf bytes.Buffer
	next := blockingHandler{Handler: slog.NewTextHandler(&buf, nil), release: make(chan struct{})}
	ah := NewAsyncHandler(next, 1)
	log := slog.New(ah)
	// 背景最多卡住一筆、佇列再放一筆，第三筆一定被丟
	for i := 0; i < 3; i++ {
		log.Info("stat", "i", i)
	}
	if ah.Dropped() < 1 {
		t.Fatalf("want at least 1 dropped, got %d", ah.Dropped())
	}
	close(next.release)
	ah.Close()
	if got := bytes.Count(buf.Bytes(), []byte("stat")); uint64(got)+ah.Dropped() != 3 {
		t.Fatalf("written %d + dropped %d != 3", got, ah.Dropped())
	}
	var nilH *AsyncHandler
	if nilH.Ready() || nilH.Dropped() != 0 {
		t.Fatalf("nil handler must be not ready")
	}
	nilH.Close()
}
