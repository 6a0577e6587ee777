/**
 * @description
 * Sentinel errors shared by all storage backends.
 *
 * @dependencies
 * - standard "errors"
 */

package store

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates a uniqueness constraint was violated
	ErrDuplicate = errors.New("duplicate record")
)
