package vault

import (
	"context"

	"github.com/google/uuid"
)

// playerFolders is the fixed compile-time list of folders created under
// every new player's vault subtree (spec.md §4.6).
var playerFolders = []FolderType{
	FolderInbox,
	FolderBuddyList,
	FolderIgnoreList,
	FolderPeopleIKnowList,
	FolderChronicleFolder,
	FolderAvatarOutfitFolder,
	FolderAgeJournalsFolder,
	FolderAgeOwnersFolder,
	FolderAgesIOwnFolder,
	FolderAgesICanVisitFolder,
	FolderAvatarClosetFolder,
	FolderPlayerInfoListFolder,
	FolderHoodInfo,
}

// BuildPlayerSubtree materializes a PlayerInfo node plus the canonical
// player folder set and links every folder under it, returning the
// PlayerInfo node's idx. now is the creation timestamp for every node.
func (s *Store) BuildPlayerSubtree(ctx context.Context, playerIdx uint32, playerName string, now uint32) (infoIdx uint32, err error) {
	info := &Node{}
	info.NodeType = int32(NodePlayerInfo)
	info.Set(FieldNodeType)
	info.CreateTime, info.ModifyTime = now, now
	info.Set(FieldCreateTime)
	info.Set(FieldModifyTime)
	info.Uint32_1 = playerIdx
	info.Set(FieldUint32_1)
	info.Int32_1 = 0 // offline
	info.Set(FieldInt32_1)
	info.String64_1 = ""
	info.Set(FieldString64_1)
	info.String64_2 = playerName
	info.Set(FieldString64_2)

	infoIdx, err = s.Create(ctx, info)
	if err != nil {
		return 0, err
	}

	for _, ft := range playerFolders {
		folder := &Node{}
		folder.NodeType = int32(NodeFolder)
		folder.Set(FieldNodeType)
		folder.Int32_1 = int32(ft)
		folder.Set(FieldInt32_1)
		folder.CreateTime, folder.ModifyTime = now, now
		folder.Set(FieldCreateTime)
		folder.Set(FieldModifyTime)

		folderIdx, err := s.Create(ctx, folder)
		if err != nil {
			return infoIdx, err
		}
		if _, err := s.Ref(ctx, NodeRef{Parent: infoIdx, Child: folderIdx, Owner: playerIdx}); err != nil {
			return infoIdx, err
		}
	}
	return infoIdx, nil
}

// ageFolders is the fixed compile-time list of folders created under every
// new age instance's subtree (spec.md §4.6, §6.3).
var ageFolders = []FolderType{
	FolderAgeInstanceSDLNode,
	FolderAgeGlobalSDLNode,
	FolderCanVisitFolder,
	FolderAgeOwnersFolder,
	FolderSubAgesFolder,
	FolderAgeDevicesFolder,
	FolderHoodMembersFolder,
	FolderAgeMembersFolder,
}

// BuildAgeSubtree materializes an Age node, its AgeInfo node, and the
// canonical age folder set, returning both idx values.
func (s *Store) BuildAgeSubtree(ctx context.Context, ageFilename, displayName string, ageUuid uuid.UUID, now uint32) (ageIdx, infoIdx uint32, err error) {
	age := &Node{}
	age.NodeType = int32(NodeAge)
	age.Set(FieldNodeType)
	age.CreateAgeName = ageFilename
	age.Set(FieldCreateAgeName)
	age.CreateAgeUuid = ageUuid
	age.Set(FieldCreateAgeUuid)
	age.Uuid_1 = ageUuid
	age.Set(FieldUuid_1)
	age.CreateTime, age.ModifyTime = now, now
	age.Set(FieldCreateTime)
	age.Set(FieldModifyTime)

	ageIdx, err = s.Create(ctx, age)
	if err != nil {
		return 0, 0, err
	}

	info := &Node{}
	info.NodeType = int32(NodeAgeInfo)
	info.Set(FieldNodeType)
	info.String64_2 = ageFilename
	info.Set(FieldString64_2)
	info.String64_3 = displayName
	info.Set(FieldString64_3)
	info.Uuid_1 = ageUuid
	info.Set(FieldUuid_1)
	info.CreateTime, info.ModifyTime = now, now
	info.Set(FieldCreateTime)
	info.Set(FieldModifyTime)

	infoIdx, err = s.Create(ctx, info)
	if err != nil {
		return ageIdx, 0, err
	}
	if _, err = s.Ref(ctx, NodeRef{Parent: ageIdx, Child: infoIdx, Owner: 0}); err != nil {
		return ageIdx, infoIdx, err
	}

	for _, ft := range ageFolders {
		folder := &Node{}
		folder.NodeType = int32(NodeFolder)
		folder.Set(FieldNodeType)
		folder.Int32_1 = int32(ft)
		folder.Set(FieldInt32_1)
		folder.CreateTime, folder.ModifyTime = now, now
		folder.Set(FieldCreateTime)
		folder.Set(FieldModifyTime)

		folderIdx, err := s.Create(ctx, folder)
		if err != nil {
			return ageIdx, infoIdx, err
		}
		if _, err := s.Ref(ctx, NodeRef{Parent: ageIdx, Child: folderIdx, Owner: 0}); err != nil {
			return ageIdx, infoIdx, err
		}
	}
	return ageIdx, infoIdx, nil
}
