// Package declaration generates and merges federated type declarations.
//
// # Overview
//
// The producer side of mftypes runs in three steps:
//
//  1. [Generator] compiles each exposed component into
//     <rootDir>/<typesDir>/<appName>/<exposedName>/ using a
//     [compiler.Compiler] in declaration-only mode.
//  2. [Merger] walks that output tree and wraps the declarations of every
//     leaf directory in an ambient module block.
//  3. The merged file and every original ".d.ts" are handed to the
//     manifest writer.
//
// # Module paths
//
// A file's [ModulePath] is the list of directory segments between the
// output root and the file. Files that share a directory share a module:
//
//	root/Button/index.d.ts      → Button
//	root/Button/types.d.ts      → Button
//	root/forms/Input/index.d.ts → forms/Input
//	root/index.d.ts             → (root, skipped)
//
// # Merged output
//
// The merged index.d.ts holds one block per module path, in order of first
// appearance, separated by a blank line:
//
//	declare module 'Button' {
//	export declare const Button: (props: ButtonProps) => JSX.Element;
//	export interface ButtonProps { label: string; }
//	};
//
// [compiler.Compiler]: github.com/matzehuels/mftypes/pkg/compiler.Compiler
package declaration
