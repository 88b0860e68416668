// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

/*
Package services adapts coursevault components to the suture.Service
interface.

  - HTTPServerService wraps *http.Server (ListenAndServe / Shutdown).
  - SchedulerService wraps *backup.Scheduler (Start / Stop).

Both return ctx.Err() after a requested shutdown and implement fmt.Stringer so
suture names them in its event log.
*/
package services
