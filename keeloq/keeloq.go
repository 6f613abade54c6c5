// RTLFOB - An rtl-sdr key fob signal recovery and replay tool for the ISM bands.
// Copyright (C) 2015 Douglas Hall
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package keeloq registers field layouts for 64-bit KeeLoq style rolling
// code transmissions. The field boundaries are a best-effort heuristic and
// are not checked against the payload's content.
package keeloq

import "github.com/bemasher/rtlfob/protocol"

const PayloadBits = 64

// Layout places the status bits at the end of the payload.
var Layout = protocol.Layout{
	Name:  "keeloq",
	Width: PayloadBits,
	Fields: []protocol.Field{
		{Name: "fixed_id", Start: 0, Length: 28},
		{Name: "rolling_counter", Start: 28, Length: 16},
		{Name: "status", Start: PayloadBits - 4, Length: 4},
	},
}

// CompactLayout places the status bits directly after the counter.
var CompactLayout = protocol.Layout{
	Name:  "keeloq-status44",
	Width: PayloadBits,
	Fields: []protocol.Field{
		{Name: "fixed_id", Start: 0, Length: 28},
		{Name: "rolling_counter", Start: 28, Length: 16},
		{Name: "status", Start: 44, Length: 4},
	},
}

func init() {
	protocol.Register(Layout)
	protocol.Register(CompactLayout)
}
