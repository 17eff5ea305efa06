package jvm

// AttrKind identifies an attribute by its name.
type AttrKind int

const (
	AttrUnrecognized AttrKind = iota
	AttrConstantValue
	AttrCode
	AttrStackMapTable
	AttrStackMap
	AttrExceptions
	AttrInnerClasses
	AttrEnclosingMethod
	AttrSynthetic
	AttrSignature
	AttrSourceFile
	AttrSourceDebugExtension
	AttrLineNumberTable
	AttrLocalVariableTable
	AttrLocalVariableTypeTable
	AttrDeprecated
	AttrRuntimeVisibleAnnotations
	AttrRuntimeInvisibleAnnotations
	AttrRuntimeVisibleParameterAnnotations
	AttrRuntimeInvisibleParameterAnnotations
	AttrRuntimeVisibleTypeAnnotations
	AttrRuntimeInvisibleTypeAnnotations
	AttrAnnotationDefault
	AttrBootstrapMethods
	AttrMethodParameters
	AttrModule
	AttrModulePackages
	AttrModuleMainClass
	AttrModuleHashes
	AttrModuleTarget
	AttrModuleResolution
	AttrNestHost
	AttrNestMembers
	AttrRecord
	AttrPermittedSubclasses
	AttrLoadableDescriptors
	AttrSourceID
	AttrCompilationID
	attrKindCount
)

type attrShape struct {
	name   string
	since  Version
	unique bool // at most one per owner
}

var attrShapes = [attrKindCount]attrShape{
	AttrUnrecognized:                         {name: ""},
	AttrConstantValue:                        {"ConstantValue", Version{}, true},
	AttrCode:                                 {"Code", Version{}, true},
	AttrStackMapTable:                        {"StackMapTable", VersionStackMapTable, true},
	AttrStackMap:                             {"StackMap", Version{}, true},
	AttrExceptions:                           {"Exceptions", Version{}, true},
	AttrInnerClasses:                         {"InnerClasses", Version{}, true},
	AttrEnclosingMethod:                      {"EnclosingMethod", Version{49, 0}, true},
	AttrSynthetic:                            {"Synthetic", Version{}, true},
	AttrSignature:                            {"Signature", Version{49, 0}, true},
	AttrSourceFile:                           {"SourceFile", Version{}, true},
	AttrSourceDebugExtension:                 {"SourceDebugExtension", Version{49, 0}, true},
	AttrLineNumberTable:                      {"LineNumberTable", Version{}, false},
	AttrLocalVariableTable:                   {"LocalVariableTable", Version{}, false},
	AttrLocalVariableTypeTable:               {"LocalVariableTypeTable", Version{49, 0}, false},
	AttrDeprecated:                           {"Deprecated", Version{}, true},
	AttrRuntimeVisibleAnnotations:            {"RuntimeVisibleAnnotations", Version{49, 0}, true},
	AttrRuntimeInvisibleAnnotations:          {"RuntimeInvisibleAnnotations", Version{49, 0}, true},
	AttrRuntimeVisibleParameterAnnotations:   {"RuntimeVisibleParameterAnnotations", Version{49, 0}, true},
	AttrRuntimeInvisibleParameterAnnotations: {"RuntimeInvisibleParameterAnnotations", Version{49, 0}, true},
	AttrRuntimeVisibleTypeAnnotations:        {"RuntimeVisibleTypeAnnotations", Version{52, 0}, true},
	AttrRuntimeInvisibleTypeAnnotations:      {"RuntimeInvisibleTypeAnnotations", Version{52, 0}, true},
	AttrAnnotationDefault:                    {"AnnotationDefault", Version{49, 0}, true},
	AttrBootstrapMethods:                     {"BootstrapMethods", Version{51, 0}, true},
	AttrMethodParameters:                     {"MethodParameters", Version{52, 0}, true},
	AttrModule:                               {"Module", VersionModule, true},
	AttrModulePackages:                       {"ModulePackages", VersionModule, true},
	AttrModuleMainClass:                      {"ModuleMainClass", VersionModule, true},
	AttrModuleHashes:                         {"ModuleHashes", VersionModule, true},
	AttrModuleTarget:                         {"ModuleTarget", VersionModule, true},
	AttrModuleResolution:                     {"ModuleResolution", VersionModule, true},
	AttrNestHost:                             {"NestHost", VersionNest, true},
	AttrNestMembers:                          {"NestMembers", VersionNest, true},
	AttrRecord:                               {"Record", VersionRecord, true},
	AttrPermittedSubclasses:                  {"PermittedSubclasses", VersionPermittedSubclasses, true},
	AttrLoadableDescriptors:                  {"LoadableDescriptors", Version{}, true},
	AttrSourceID:                             {"SourceID", Version{}, true},
	AttrCompilationID:                        {"CompilationID", Version{}, true},
}

var attrByName = func() map[string]AttrKind {
	m := make(map[string]AttrKind, len(attrShapes))
	for k, s := range attrShapes {
		if s.name != "" {
			m[s.name] = AttrKind(k)
		}
	}
	return m
}()

// AttrKindByName maps an attribute name to its kind; unknown names map to
// AttrUnrecognized.
func AttrKindByName(name string) AttrKind {
	return attrByName[name]
}

func (k AttrKind) String() string {
	if k > AttrUnrecognized && k < attrKindCount {
		return attrShapes[k].name
	}
	return "Unrecognized"
}

// Since is the first class file version the attribute is defined for.
func (k AttrKind) Since() Version {
	if k < attrKindCount {
		return attrShapes[k].since
	}
	return Version{}
}

// Unique reports whether at most one attribute of this kind may appear on an owner.
func (k AttrKind) Unique() bool {
	return k < attrKindCount && attrShapes[k].unique
}

// Attribute is any decoded attribute.
type Attribute interface {
	Header() *AttrHeader
}

// AttrHeader is the name_index/length frame shared by every attribute.
type AttrHeader struct {
	NameIndex uint16
	Length    uint32
	Kind      AttrKind
	Offset    int // file offset of name_index
}

func (h *AttrHeader) Header() *AttrHeader { return h }

// IndexAttr carries a single u2: SourceFile, Signature, ConstantValue,
// NestHost, ModuleMainClass, ModuleTarget, ModuleResolution, SourceID and
// CompilationID.
type IndexAttr struct {
	AttrHeader
	Index uint16
}

type EnclosingMethodAttr struct {
	AttrHeader
	ClassIndex  uint16
	MethodIndex uint16
}

// MarkerAttr is an empty attribute (Synthetic, Deprecated).
type MarkerAttr struct {
	AttrHeader
}

// IndexArrayAttr is a u2 count followed by u2 pool indices: Exceptions,
// NestMembers, PermittedSubclasses, ModulePackages and LoadableDescriptors.
type IndexArrayAttr struct {
	AttrHeader
	Indices []uint16
}

type InnerClass struct {
	InnerIndex uint16
	OuterIndex uint16
	NameIndex  uint16
	Flags      uint16
}

type InnerClassesAttr struct {
	AttrHeader
	Classes []InnerClass
}

type SourceDebugExtensionAttr struct {
	AttrHeader
	Data []byte
}

type LineNumber struct {
	StartPC uint16
	Line    uint16
}

type LineNumberTableAttr struct {
	AttrHeader
	Lines []LineNumber
}

// LocalVariable is an entry of LocalVariableTable or, with DescIndex
// holding a signature, LocalVariableTypeTable.
type LocalVariable struct {
	StartPC   uint16
	Length    uint16
	NameIndex uint16
	DescIndex uint16
	Slot      uint16
}

type LocalVariableTableAttr struct {
	AttrHeader
	Vars []LocalVariable
}

type MethodParameter struct {
	NameIndex uint16
	Flags     uint16
}

type MethodParametersAttr struct {
	AttrHeader
	Params []MethodParameter
}

// BootstrapMethod is one BootstrapMethods entry. Arguments are pool indices.
type BootstrapMethod struct {
	MethodRef uint16
	Args      []uint16
}

type BootstrapMethodsAttr struct {
	AttrHeader
	Methods []BootstrapMethod
}

type ExceptionEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

type CodeAttr struct {
	AttrHeader
	MaxStack   uint16
	MaxLocals  uint16
	Code       []byte
	Exceptions []ExceptionEntry
	Attributes []Attribute
}

// StackMapAttr is a StackMapTable, or the legacy StackMap when Legacy is set.
type StackMapAttr struct {
	AttrHeader
	Legacy bool
	Frames []StackMapFrame
}

type AnnotationsAttr struct {
	AttrHeader
	Annotations []Annotation
}

type ParameterAnnotationsAttr struct {
	AttrHeader
	Params [][]Annotation
}

type TypeAnnotationsAttr struct {
	AttrHeader
	Annotations []TypeAnnotation
}

type AnnotationDefaultAttr struct {
	AttrHeader
	Value ElementValue
}

type ModuleAttr struct {
	AttrHeader
	Module ModuleDescriptor
}

type ModuleHash struct {
	ModuleIndex uint16
	Hash        []byte
}

type ModuleHashesAttr struct {
	AttrHeader
	Algorithm uint16
	Hashes    []ModuleHash
}

type RecordComponent struct {
	NameIndex  uint16
	DescIndex  uint16
	Attributes []Attribute
}

type RecordAttr struct {
	AttrHeader
	Components []RecordComponent
}

// UnrecognizedAttr keeps the raw body of an attribute that was not decoded.
// Reason is empty for unknown names and set when a known attribute could
// not be decoded.
type UnrecognizedAttr struct {
	AttrHeader
	Name   string
	Data   []byte
	Reason string
}

// FindAttr returns the first attribute of kind, or nil.
func FindAttr(attrs []Attribute, kind AttrKind) Attribute {
	for _, a := range attrs {
		if a.Header().Kind == kind {
			return a
		}
	}
	return nil
}
