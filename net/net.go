// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package net builds and runs nets of siamese layers described in YAML.
//
// Example:
//
//	cfg, err := net.LoadConfig("pairs.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	n, err := net.New(cfg, cpu.New())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = n.SetInput("feat_a", featA)
//	loss, err := n.Forward()
//	err = n.Backward()
package net

import (
	"github.com/born-ml/siamese/internal/backend/cpu"
	"github.com/born-ml/siamese/internal/config"
	"github.com/born-ml/siamese/internal/net"
)

// Net is a chain of layers connected by named blobs.
type Net = net.Net

// Config describes a net: named inputs and an ordered list of layers.
type Config = config.NetConfig

// InputConfig declares a blob fed by the caller.
type InputConfig = config.InputConfig

// LayerConfig declares one layer.
type LayerConfig = config.LayerConfig

// Errors returned by Net.
var (
	ErrUnknownBlob  = net.ErrUnknownBlob
	ErrNotAnInput   = net.ErrNotAnInput
	ErrNoForwardRun = net.ErrNoForwardRun
)

// New builds a net and runs Setup on every layer. A nil backend uses the
// default CPU backend.
func New(cfg *Config, backend *cpu.CPUBackend) (*Net, error) {
	return net.New(cfg, backend)
}

// LoadConfig reads and validates a YAML net description.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// ParseConfig decodes and validates a YAML net description.
func ParseConfig(data []byte) (*Config, error) {
	return config.Parse(data)
}
