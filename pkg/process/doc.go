// SPDX-License-Identifier: BSD-3-Clause

// Package process bridges service.Service implementations into an
// oversight.ChildProcess, adding panic recovery that reports the
// service's name alongside the recovered value.
//
// # Basic usage
//
//	mgr := domainmgr.New[measurement.Air]("air", airSampler, airController, airBC, st.AddAir, logger)
//	child := process.New(mgr)
//
//	tree := oversight.New(oversight.Processes(child))
//	return tree.Start(ctx)
package process
