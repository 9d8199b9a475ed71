// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package errors

const (
	CodeInvalidArgument int = 4001

	CodeInternalError int = 5000

	CodeParseError    int = 6001
	CodeWorkerFailure int = 6002
	CodeWorkerTimeout int = 6003

	CodeInitializeError = 7001
	CodeLackOfConfig    = 7002

	CodeIOError = 8001
)
