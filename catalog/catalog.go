// Package catalog 管理預設參數組（preset）的目錄：ID、名稱與設定檔名的對應。
package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
	"github.com/zintix-labs/wdmlab/spec"
)

var (
	ErrDupID   = errs.NewFatal("duplicate preset id")
	ErrDupName = errs.NewFatal("duplicate preset name")
)

type Entry struct {
	ID         spec.PID
	Name       string
	ConfigName string
}

// Summary 對外列舉用（GET /v1/presets）
type Summary struct {
	ID     spec.PID      `json:"id"`
	Name   string        `json:"name"`
	Note   string        `json:"note,omitempty"`
	Params wiener.Params `json:"params"`
	Draws  int           `json:"draws"`
}

type Catalog struct {
	byID   map[spec.PID]Entry
	byName map[string]Entry
	ids    []spec.PID          // 用來穩定排序
	unique map[string]struct{} // 一組 preset，檔名需唯一
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byID:   map[spec.PID]Entry{},
		byName: map[string]Entry{},
		ids:    make([]spec.PID, 0, 16),
		unique: map[string]struct{}{},
		config: multFS,
		frozen: false,
	}, nil
}

// Register 批次註冊；任何一筆不合法時整批都不寫入。
func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenID := map[spec.PID]struct{}{}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range metas {
		meta := &metas[i]
		meta.Name = strings.ToLower(strings.TrimSpace(meta.Name))
		if meta.Name == "" {
			return errs.NewFatal("preset name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.NewFatal(fmt.Sprintf("config file not found: %s", meta.ConfigName))
		}
		if _, ok := c.byID[meta.ID]; ok {
			return ErrDupID
		}
		if _, ok := seenID[meta.ID]; ok {
			return ErrDupID
		}
		if _, ok := c.byName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := seenName[meta.Name]; ok {
			return ErrDupName
		}
		_, dupCfg := c.unique[meta.ConfigName]
		if _, ok := seenCfg[meta.ConfigName]; ok || dupCfg {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		seenID[meta.ID] = struct{}{}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		c.unique[meta.ConfigName] = struct{}{}
		c.byID[meta.ID] = meta
		c.byName[meta.Name] = meta
		c.ids = append(c.ids, meta.ID)
	}
	sort.Slice(c.ids, func(i, j int) bool { return c.ids[i] < c.ids[j] })
	return nil
}

// Discover 掃描所有設定檔來源，解析每個 yaml/json 並產生 Entry（依檔名排序，不寫入目錄）。
//
// 任何一個檔案讀取或解析失敗都直接回傳 error。
func (c *Catalog) Discover() ([]Entry, error) {
	names := make([]string, 0, len(c.config.index))
	for name := range c.config.index {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			continue
		}
		ps, err := c.readPreset(name)
		if err != nil {
			return nil, errs.WrapWithExtra(err, "parse preset failed", name)
		}
		entries = append(entries, Entry{ID: ps.ID, Name: ps.Name, ConfigName: name})
	}
	if len(entries) == 0 {
		return nil, errs.NewFatal("no config files found to register")
	}
	return entries, nil
}

func (c *Catalog) GetByID(id spec.PID) (Entry, bool) {
	m, ok := c.byID[id]
	return m, ok
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	m, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

func (c *Catalog) IDs() []spec.PID {
	if len(c.ids) == 0 {
		return nil
	}
	return append([]spec.PID(nil), c.ids...)
}

func (c *Catalog) All() []Entry {
	m := make([]Entry, 0, len(c.ids))
	for _, id := range c.ids {
		if meta, ok := c.GetByID(id); ok {
			m = append(m, meta)
		}
	}
	return m
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

// PresetByID 讀取並解析對應設定檔。
func (c *Catalog) PresetByID(id spec.PID) (*spec.PresetSetting, error) {
	e, ok := c.GetByID(id)
	if !ok {
		return nil, errs.NewWarn("id dose not exist in catalog")
	}
	return c.readPreset(e.ConfigName)
}

// PresetByName 同 PresetByID，以名稱查找（大小寫不敏感）。
func (c *Catalog) PresetByName(name string) (*spec.PresetSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.NewWarn("name dose not exist in catalog")
	}
	return c.readPreset(e.ConfigName)
}

// Summaries 依 ID 排序列出所有 preset 的摘要。
func (c *Catalog) Summaries() ([]Summary, error) {
	out := make([]Summary, 0, len(c.ids))
	for _, id := range c.ids {
		ps, err := c.PresetByID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{ID: ps.ID, Name: ps.Name, Note: ps.Note, Params: ps.Params, Draws: ps.Draws})
	}
	return out, nil
}

func (c *Catalog) readPreset(name string) (*spec.PresetSetting, error) {
	src, ok := c.config.GetFS(name)
	if !ok {
		return nil, errs.NewWarn("file name dose not exist in catalog")
	}
	raw, err := fs.ReadFile(src, name)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	return parsePresetByExt(name, raw)
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	// 1) 不能包含路徑或類似字元
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must be a basename; no / \\\\ :) ", file))
	}
	// 2) 必須以 .yaml/.yml/.json 結尾（大小寫不敏感）
	if !isConfigExt(file) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file))
	}
	// 3) 不能以 . 開頭
	if strings.HasPrefix(file, ".") {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (cannot start with '.')", file))
	}
	return nil
}

func isConfigExt(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func parsePresetByExt(filename string, raw []byte) (*spec.PresetSetting, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return spec.GetPresetByYAML(raw)
	case ".json":
		return spec.GetPresetByJSON(raw)
	default:
		return nil, errs.NewFatal(fmt.Sprintf("unsupported config format: %q", filename))
	}
}

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
	}

	m := &multiFS{
		src:   src,
		index: make(map[string]int, 32),
	}

	for i := range src {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			// 設定檔目錄必須是平的：只允許根目錄 "."
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			if strings.Contains(path, "/") {
				return errs.NewFatal(fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			// 其他檔案忽略
			if !isConfigExt(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i))
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], ok
	}
	return nil, false
}
