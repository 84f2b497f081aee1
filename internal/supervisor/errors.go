// SPDX-License-Identifier: BSD-3-Clause

package supervisor

import "errors"

var errInvalidI2CPath = errors.New("i2c_path does not end in a bus number")
