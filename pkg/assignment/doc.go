// Package assignment decides who works a lead.
//
// Only leads and agents can receive work; super-admins are never assigned.
// Round-robin walks the assignable accounts in directory order and hands back
// the index the next batch should start from. That index lives in a Rotation
// owned by the application context, so independent contexts never share a
// position:
//
//	rotation := assignment.NewRotation()
//	emails, err := rotation.Assign(assignment.AssignableUsers(dir.List()), len(rows))
//	if errors.Is(err, assignment.ErrNoAssignableUsers) {
//		...
//	}
//
// ManualAssign overwrites the assignee of selected records with any email.
package assignment
