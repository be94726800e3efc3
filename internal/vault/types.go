package vault

// NodeType discriminates the shape of a Node (spec.md §6.3).
type NodeType int32

const (
	NodeInvalid NodeType = iota
	NodeVNode
	NodePlayer
	NodeAge
	NodeGameServer
	NodeAdminMgr
	NodeVaultServer
	NodeCCR
	NodeFolder
	NodePlayerInfo
	NodeSystem
	NodeImage
	NodeTextNote
	NodeSDL
	NodeAgeLink
	NodeChronicle
	NodePlayerInfoList
	NodeUnused
	NodeMarker
	NodeAgeInfo
	NodeAgeInfoList
	NodeMarkerList
)

// FolderType is the Node.Int32_1 subtype carried by NodeFolder and
// NodePlayerInfoList nodes (spec.md §6.3).
type FolderType int32

const (
	FolderUserDefined FolderType = iota
	FolderInbox
	FolderBuddyList
	FolderIgnoreList
	FolderPeopleIKnowList
	FolderVaultMgrGlobalDataFolder
	FolderChronicleFolder
	FolderAvatarOutfitFolder
	FolderAgeTypeJournalFolder
	FolderSubAgesFolder
	FolderDeviceInboxFolder
	FolderHoodMembersFolder
	FolderAllPlayersFolder
	FolderAgeMembersFolder
	FolderAgeJournalsFolder
	FolderAgeDevicesFolder
	FolderAgeInstanceSDLNode
	FolderAgeGlobalSDLNode
	FolderCanVisitFolder
	FolderAgeOwnersFolder
	FolderAllAgeGlobalSDLNodesFolder
	FolderPlayerInfoListFolder
	FolderPublicAgeList
	FolderAgesIOwnFolder
	FolderAgesICanVisitFolder
	FolderAvatarClosetFolder
	FolderAgeInstanceSDLHookNode
	FolderHoodInfo
	FolderHoodMembersInfoFolder
)
