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


package app

import (
	"context"
	"sync"
)

// Component 可被 App 管理生命週期的元件。Run 應阻塞直到元件停止。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// Closer 把「只有 Done/Close」的資源（例如 wdmlab.Runtime）包裝成 Component。
//
// Run 阻塞直到 done 被 close，若 Shutdown 之前就結束則回傳 cause() 的錯誤，讓 App 整體關閉。
type Closer struct {
	done     <-chan struct{}
	close    func()
	cause    func() error
	shutdown chan struct{}
	once     sync.Once
}

func NewCloser(done <-chan struct{}, closeFn func(), cause func() error) *Closer {
	return &Closer{done: done, close: closeFn, cause: cause, shutdown: make(chan struct{})}
}

func (c *Closer) Run() error {
	select {
	case <-c.shutdown:
		return nil
	case <-c.done:
		select {
		case <-c.shutdown:
			return nil
		default:
		}
		if c.cause != nil {
			return c.cause()
		}
		return nil
	}
}

func (c *Closer) Shutdown(_ context.Context) error {
	c.once.Do(func() {
		close(c.shutdown)
		if c.close != nil {
			c.close()
		}
	})
	return nil
}
