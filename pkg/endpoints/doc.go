// Package endpoints binds the generic pagination engine to the platform's
// paginated collections.
//
// Each constructor checks the permissions it can know locally, compiles the
// route for its target and returns a paginator embedding
// *pagination.Action, so every pull and push operation is available on it.
// Collection-specific filters return the paginator for chaining and take
// effect on the next page request:
//
//	log, err := endpoints.AuditLog(requester, guild)
//	if err != nil {
//		return err
//	}
//	bans, err := log.ActionType(entity.AuditLogMemberBanAdd).TakeAsync(ctx, 20).Result()
//
// Targets whose Permissions are unresolved (zero) skip the local check and
// leave it to the API.
package endpoints
