package age

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/h-uru/moula-authd/internal/chk"
	"github.com/h-uru/moula-authd/internal/log"
	"github.com/h-uru/moula-authd/internal/vault"
)

// CreateAge builds the canonical age subtree for ageUuid, or returns the
// existing (ageIdx, infoIdx) pair if one was already created (spec.md
// §4.4). The existing-age check reproduces the original's two-step lookup:
// an Age node by Uuid_1, then its matching AgeInfo node by the same Uuid_1
// (spec.md's supplemented feature 6).
func CreateAge(ctx context.Context, vs *vault.Store, ageUuid uuid.UUID, ageFilename, displayName string, now uint32) (ageIdx, infoIdx uint32, err error) {
	ageTemplate := &vault.Node{}
	ageTemplate.Uuid_1 = ageUuid
	ageTemplate.Set(vault.FieldUuid_1)
	ageTemplate.NodeType = int32(vault.NodeAge)
	ageTemplate.Set(vault.FieldNodeType)

	ageMatches, err := vs.FindNodes(ctx, ageTemplate)
	if chk.E(err) {
		return 0, 0, err
	}
	if len(ageMatches) > 0 {
		if len(ageMatches) > 1 {
			log.W.F("age: %s matches %d Age nodes, using node 0", ageUuid, len(ageMatches))
		}
		ageIdx = ageMatches[0]

		infoTemplate := &vault.Node{}
		infoTemplate.Uuid_1 = ageUuid
		infoTemplate.Set(vault.FieldUuid_1)
		infoTemplate.NodeType = int32(vault.NodeAgeInfo)
		infoTemplate.Set(vault.FieldNodeType)
		infoMatches, err := vs.FindNodes(ctx, infoTemplate)
		if chk.E(err) {
			return ageIdx, 0, errors.Wrapf(err, "age: %s: looking up AgeInfo node", ageUuid)
		}
		if len(infoMatches) == 0 {
			return ageIdx, 0, errors.Errorf("age: %s has an Age node but no matching AgeInfo node", ageUuid)
		}
		return ageIdx, infoMatches[0], nil
	}

	return vs.BuildAgeSubtree(ctx, ageFilename, displayName, ageUuid, now)
}
