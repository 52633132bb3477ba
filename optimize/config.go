// Copyright (C) 2008-2019 by Nicolas Piganeau and the TS2 TEAM
// (See AUTHORS file)
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the
// Free Software Foundation, Inc.,
// 59 Temple Place - Suite 330, Boston, MA  02111-1307, USA.

package optimize

// Config tunes the signal optimizer's cost weighting and its patience
// when a horizon expansion fails to produce a schedule.
type Config struct {
	// RelativeSignalCost is how many detector-units one active signal
	// costs in the combined unary cost encoding.
	RelativeSignalCost int

	// MaxConsecutiveUnsatExpansions bounds how many times in a row
	// NextSignalSet will grow every usage's horizon by one state before
	// concluding that no further signal sets exist.
	MaxConsecutiveUnsatExpansions int
}

// DefaultConfig returns the optimizer's default tuning.
func DefaultConfig() Config {
	return Config{
		RelativeSignalCost:             3,
		MaxConsecutiveUnsatExpansions: 3,
	}
}
