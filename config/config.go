// Package config 基于 viper 的泛型配置加载。
//
// 优先级：命令行参数 > 环境变量 > 配置文件 > 默认值。
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader 配置加载器
type Loader[T any] struct {
	v *viper.Viper

	searchName  string
	searchPaths []string
	errs        []error
}

// Option 配置选项
type Option[T any] func(*Loader[T])

// WithDefaults 设置默认值，key 使用点号分隔，如 "http.timeout"
func WithDefaults[T any](defaults map[string]any) Option[T] {
	return func(l *Loader[T]) {
		for k, v := range defaults {
			l.v.SetDefault(k, v)
		}
	}
}

// WithEnv 绑定带前缀的环境变量，如前缀 STARHISTORY 时 http.timeout 对应 STARHISTORY_HTTP_TIMEOUT
func WithEnv[T any](prefix string) Option[T] {
	return func(l *Loader[T]) {
		l.v.SetEnvPrefix(prefix)
		l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		l.v.AutomaticEnv()
	}
}

// WithEnvBinding 把 key 绑定到指定的环境变量（不加前缀），如 token -> GITHUB_TOKEN
func WithEnvBinding[T any](key string, envs ...string) Option[T] {
	return func(l *Loader[T]) {
		args := append([]string{key}, envs...)
		if err := l.v.BindEnv(args...); err != nil {
			l.errs = append(l.errs, fmt.Errorf("bind env %s: %w", key, err))
		}
	}
}

// WithFlags 绑定命令行参数，bindings 为 配置 key -> flag 名
func WithFlags[T any](fs *pflag.FlagSet, bindings map[string]string) Option[T] {
	return func(l *Loader[T]) {
		for key, name := range bindings {
			f := fs.Lookup(name)
			if f == nil {
				l.errs = append(l.errs, fmt.Errorf("bind flag %s: flag --%s not defined", key, name))
				continue
			}
			if err := l.v.BindPFlag(key, f); err != nil {
				l.errs = append(l.errs, fmt.Errorf("bind flag %s: %w", key, err))
			}
		}
	}
}

// WithSearchPaths 未指定配置文件时，在 dirs 中查找名为 name 的配置文件（yaml）
func WithSearchPaths[T any](name string, dirs ...string) Option[T] {
	return func(l *Loader[T]) {
		l.searchName = name
		l.searchPaths = append(l.searchPaths, dirs...)
	}
}

// Load 加载配置。
//
// path 非空时必须能读取；path 为空时按 WithSearchPaths 查找，找不到文件不视为错误。
func Load[T any](path string, opts ...Option[T]) (*T, error) {
	l := &Loader[T]{v: viper.New()}
	for _, opt := range opts {
		opt(l)
	}
	if err := errors.Join(l.errs...); err != nil {
		return nil, err
	}

	switch {
	case path != "":
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	case l.searchName != "":
		l.v.SetConfigName(l.searchName)
		l.v.SetConfigType("yaml")
		for _, d := range l.searchPaths {
			l.v.AddConfigPath(d)
		}
		if err := l.v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var val T
	if err := l.v.Unmarshal(&val); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &val, nil
}
