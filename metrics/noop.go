// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import "net/http"

type noopProvider struct{}

func (noopProvider) counter(string) CountMeter                 { return noop }
func (noopProvider) counterVec(string, []string) CountVecMeter { return noop }
func (noopProvider) gauge(string) GaugeMeter                   { return noop }
func (noopProvider) gaugeVec(string, []string) GaugeVecMeter   { return noop }
func (noopProvider) histogram(string, []int64) HistogramMeter  { return noop }
func (noopProvider) handler() http.Handler                     { return nil }
func (noopProvider) histogramVec(string, []string, []int64) HistogramVecMeter {
	return noop
}

var noop = &noopMeter{}

// noopMeter satisfies every meter interface.
type noopMeter struct{}

func (*noopMeter) Add(int64)                                  {}
func (*noopMeter) Set(int64)                                  {}
func (*noopMeter) Observe(int64)                              {}
func (*noopMeter) AddWithLabel(int64, map[string]string)      {}
func (*noopMeter) SetWithLabel(int64, map[string]string)      {}
func (*noopMeter) ObserveWithLabels(int64, map[string]string) {}
